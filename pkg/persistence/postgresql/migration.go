package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create conversations table
			CREATE TABLE conversations (
				id VARCHAR(255) NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				active_operation VARCHAR(50) NOT NULL DEFAULT 'NEUTRAL'
					CHECK (active_operation IN ('NEUTRAL', 'ADDING_TASK', 'UPDATING_TASK', 'DELETING_TASK', 'COMPLETING_TASK')),
				accumulated_data JSONB NOT NULL DEFAULT '{}',
				target_task_id INTEGER,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (id, user_id)
			);

			CREATE INDEX idx_conversations_stale ON conversations(updated_at) WHERE active_operation <> 'NEUTRAL';
		`,
		2: `
			-- Create tasks table
			CREATE TABLE tasks (
				id SERIAL PRIMARY KEY,
				user_id VARCHAR(255) NOT NULL,
				title VARCHAR(200) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				priority VARCHAR(10) NOT NULL CHECK (priority IN ('high', 'medium', 'low')),
				completed BOOLEAN NOT NULL DEFAULT false,
				due_date TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_tasks_user_id ON tasks(user_id);
			CREATE INDEX idx_tasks_user_completed ON tasks(user_id, completed);
		`,
	}
}
