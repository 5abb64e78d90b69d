package postgres

const (
	queryMentoring = `
		SELECT student_id, student_name, organization, cohort, track, cycle,
		       session, session_date, attendance, task, engagement
		FROM mentoring_records
		ORDER BY id`

	queryEvents = `
		SELECT student_id, student_name, organization, cohort, track, event_title, attendance
		FROM event_records
		ORDER BY id`

	queryPerformance = `
		SELECT student_id, competency_id, competency_name, cohort_name, score, passed
		FROM performance_records
		ORDER BY id`

	queryCycles = `
		SELECT student_id, cycle_id, name, start_date, end_date, competency_ids
		FROM execution_cycles
		ORDER BY student_id, position`

	queryMandatory = `
		SELECT student_id, competency_id, code, current_grade, target_grade, status
		FROM mandatory_competencies
		ORDER BY student_id, position`
)

// Schema creates the tables read by Source. Nullable columns map to
// optional record fields.
const Schema = `
CREATE TABLE IF NOT EXISTS mentoring_records (
	id           BIGSERIAL PRIMARY KEY,
	student_id   TEXT NOT NULL,
	student_name TEXT NOT NULL DEFAULT '',
	organization TEXT NOT NULL DEFAULT '',
	cohort       TEXT NOT NULL DEFAULT '',
	track        TEXT NOT NULL DEFAULT '',
	cycle        TEXT NOT NULL DEFAULT '',
	session      INTEGER,
	session_date DATE,
	attendance   TEXT NOT NULL,
	task         TEXT NOT NULL DEFAULT '',
	engagement   DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS event_records (
	id           BIGSERIAL PRIMARY KEY,
	student_id   TEXT NOT NULL,
	student_name TEXT NOT NULL DEFAULT '',
	organization TEXT NOT NULL DEFAULT '',
	cohort       TEXT NOT NULL DEFAULT '',
	track        TEXT NOT NULL DEFAULT '',
	event_title  TEXT NOT NULL DEFAULT '',
	attendance   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS performance_records (
	id              BIGSERIAL PRIMARY KEY,
	student_id      TEXT NOT NULL,
	competency_id   TEXT NOT NULL DEFAULT '',
	competency_name TEXT NOT NULL DEFAULT '',
	cohort_name     TEXT NOT NULL DEFAULT '',
	score           DOUBLE PRECISION,
	passed          BOOLEAN
);

CREATE TABLE IF NOT EXISTS execution_cycles (
	student_id     TEXT NOT NULL,
	position       INTEGER NOT NULL,
	cycle_id       TEXT NOT NULL,
	name           TEXT NOT NULL DEFAULT '',
	start_date     DATE NOT NULL,
	end_date       DATE NOT NULL,
	competency_ids TEXT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (student_id, position)
);

CREATE TABLE IF NOT EXISTS mandatory_competencies (
	student_id    TEXT NOT NULL,
	position      INTEGER NOT NULL,
	competency_id TEXT NOT NULL DEFAULT '',
	code          TEXT NOT NULL DEFAULT '',
	current_grade TEXT NOT NULL DEFAULT '',
	target_grade  TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (student_id, position)
);
`
