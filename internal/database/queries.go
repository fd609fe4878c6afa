package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func (db *PgQuizRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	res := db.conn.QueryRowContext(ctx,
		"INSERT INTO accounts (username, email, password_hash, avatar, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, username, email, avatar",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Avatar,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Avatar,
	)

	return u, err
}

func (db *PgQuizRepository) GetAccountById(ctx context.Context, accountId int) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, email, avatar, is_admin, xp, level, created_at, updated_at "+
			"FROM accounts WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.Avatar,
		&u.IsAdmin,
		&u.Xp,
		&u.Level,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgQuizRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, avatar, is_admin, xp, level "+
			"FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.Avatar,
		&u.IsAdmin,
		&u.Xp,
		&u.Level,
	)

	return u, err
}

func (db *PgQuizRepository) GetRandomQuestion(ctx context.Context, difficulty string, excludeIds []int) (Question, error) {
	if excludeIds == nil {
		excludeIds = []int{}
	}

	row := db.conn.QueryRowContext(ctx,
		"SELECT id, question_text, question_type, COALESCE(difficulty, ''), COALESCE(code_snippet, ''), time_limit_seconds "+
			"FROM questions WHERE ($1 = '' OR difficulty = $1) AND NOT (id = ANY($2)) "+
			"ORDER BY random() LIMIT 1",
		difficulty,
		pq.Array(excludeIds),
	)

	var q Question
	if err := row.Scan(
		&q.Id,
		&q.Text,
		&q.Type,
		&q.Difficulty,
		&q.CodeSnippet,
		&q.TimeLimitSeconds,
	); err != nil {
		return Question{}, err
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, question_id, answer_text, correct FROM answer_options "+
			"WHERE question_id = $1 ORDER BY id",
		q.Id,
	)
	if err != nil {
		return Question{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var opt AnswerOption
		if err := rows.Scan(&opt.Id, &opt.QuestionId, &opt.Text, &opt.Correct); err != nil {
			return Question{}, err
		}
		q.Options = append(q.Options, opt)
	}

	return q, rows.Err()
}

func (db *PgQuizRepository) CreateSession(ctx context.Context, params CreateSessionParams) (string, error) {
	sessionId := uuid.New().String()
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO game_sessions (id, room_code, host_user_id, mode, difficulty, status, created_at, started_at) "+
			"VALUES ($1, $2, $3, $4, $5, 'active', $6, $6)",
		sessionId,
		params.RoomCode,
		params.HostUserId,
		params.Mode,
		params.Difficulty,
		time.Now().UTC(),
	)

	return sessionId, err
}

func (db *PgQuizRepository) RecordParticipation(ctx context.Context, sessionId string, userId int) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO participations (session_id, user_id, score, streak, alive, joined_at) "+
			"VALUES ($1, $2, 0, 0, TRUE, $3) ON CONFLICT (session_id, user_id) DO NOTHING",
		sessionId,
		userId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgQuizRepository) UpdateParticipation(ctx context.Context, sessionId string, userId, score, streak int, alive bool) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE participations SET score = $3, streak = $4, alive = $5 "+
			"WHERE session_id = $1 AND user_id = $2",
		sessionId,
		userId,
		score,
		streak,
		alive,
	)

	return err
}

func (db *PgQuizRepository) FinishSession(ctx context.Context, sessionId string) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE game_sessions SET status = 'finished', finished_at = $2 WHERE id = $1",
		sessionId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgQuizRepository) AwardXp(ctx context.Context, userId, amount int) (XpAward, error) {
	// Levels are 1000 XP apart.
	row := db.conn.QueryRowContext(ctx,
		"UPDATE accounts SET xp = xp + $2, level = 1 + (xp + $2) / 1000, updated_at = $3 "+
			"WHERE id = $1 RETURNING xp, level, level > 1 + (xp - $2) / 1000",
		userId,
		amount,
		time.Now().UTC(),
	)

	award := XpAward{XpGained: amount}
	err := row.Scan(
		&award.TotalXp,
		&award.Level,
		&award.LeveledUp,
	)

	return award, err
}

func (db *PgQuizRepository) GetSessionByRoomCode(ctx context.Context, roomCode string) (GameSession, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, room_code, host_user_id, mode, COALESCE(difficulty, ''), status, created_at, finished_at "+
			"FROM game_sessions WHERE room_code = $1 LIMIT 1",
		roomCode,
	)

	var s GameSession
	var finishedAt sql.NullTime
	err := row.Scan(
		&s.Id,
		&s.RoomCode,
		&s.HostUserId,
		&s.Mode,
		&s.Difficulty,
		&s.Status,
		&s.CreatedAt,
		&finishedAt,
	)
	if finishedAt.Valid {
		s.FinishedAt = finishedAt.Time
	}

	return s, err
}

func (db *PgQuizRepository) GetSessionResults(ctx context.Context, sessionId string) ([]Participation, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT p.id, p.session_id, p.user_id, a.username, p.score, p.streak, p.alive, p.joined_at "+
			"FROM participations p JOIN accounts a ON a.id = p.user_id "+
			"WHERE p.session_id = $1 ORDER BY p.score DESC, p.joined_at ASC",
		sessionId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Participation
	for rows.Next() {
		var p Participation
		if err := rows.Scan(
			&p.Id,
			&p.SessionId,
			&p.UserId,
			&p.Username,
			&p.Score,
			&p.Streak,
			&p.Alive,
			&p.JoinedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, p)
	}

	return results, rows.Err()
}
