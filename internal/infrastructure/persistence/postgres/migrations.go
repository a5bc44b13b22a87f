package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_roster",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_rating_indexes",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ROSTER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Cohorts: opaque grouping key plus display label
CREATE TABLE IF NOT EXISTS cohorts (
    id BIGINT PRIMARY KEY,
    name VARCHAR(100) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Participants: score is owned by the roster, grade by the rating engine
CREATE TABLE IF NOT EXISTS participants (
    id BIGINT PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL,
    score INTEGER NOT NULL DEFAULT 0,
    role VARCHAR(20) NOT NULL DEFAULT 'student',
    cohort_id BIGINT REFERENCES cohorts(id) ON DELETE SET NULL,
    grade DOUBLE PRECISION,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_grade CHECK (grade IS NULL OR (grade >= 0 AND grade <= 10))
);

CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_participants_updated_at ON participants;
CREATE TRIGGER update_participants_updated_at
    BEFORE UPDATE ON participants
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_participants_updated_at ON participants;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS participants;
DROP TABLE IF EXISTS cohorts;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: RATING INDEXES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE INDEX IF NOT EXISTS idx_participants_cohort ON participants(cohort_id) WHERE role = 'student';
CREATE INDEX IF NOT EXISTS idx_participants_graded ON participants(cohort_id) WHERE grade IS NOT NULL;
`

const migration002Down = `
DROP INDEX IF EXISTS idx_participants_graded;
DROP INDEX IF EXISTS idx_participants_cohort;
`
