package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE users (
				id UUID PRIMARY KEY,
				email VARCHAR(255) NOT NULL UNIQUE,
				name VARCHAR(255),
				email_confirmed BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE pipelines (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_pipelines_user_id ON pipelines(user_id);
			CREATE INDEX idx_pipelines_created_at ON pipelines(created_at);

			CREATE TABLE pipeline_steps (
				id UUID PRIMARY KEY,
				pipeline_id UUID NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
				type VARCHAR(50) NOT NULL,
				config JSONB NOT NULL DEFAULT '{}',
				step_order INT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_pipeline_steps_pipeline_id ON pipeline_steps(pipeline_id);

			CREATE TABLE executions (
				id UUID PRIMARY KEY,
				pipeline_id UUID NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				input TEXT NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'running', 'completed', 'failed')),
				total_processing_time BIGINT,
				error_message TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_executions_pipeline_id ON executions(pipeline_id);
			CREATE INDEX idx_executions_user_id ON executions(user_id);
			CREATE INDEX idx_executions_created_at ON executions(created_at);

			CREATE TABLE execution_outputs (
				id UUID PRIMARY KEY,
				execution_id UUID NOT NULL REFERENCES executions(id) ON DELETE CASCADE,
				step_id UUID NOT NULL,
				output TEXT NOT NULL,
				processing_time BIGINT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_execution_outputs_execution_id ON execution_outputs(execution_id);
		`,
	}
}
