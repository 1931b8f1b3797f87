package storage

import (
	"database/sql"
	"fmt"
)

// RecordNewGame queues the game row for the async writer.
func (s *Store) RecordNewGame(rec GameRecord) {
	s.submitWrite("game record", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO games (game_id, initial_fen,
				white_player_id, white_name, black_player_id, black_name,
				start_time_utc)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.GameID, rec.InitialFEN,
			rec.WhitePlayerID, rec.WhiteName, rec.BlackPlayerID, rec.BlackName,
			rec.StartTimeUTC)
		return err
	})
}

// RecordMove queues one move row for the async writer.
func (s *Store) RecordMove(rec MoveRecord) {
	s.submitWrite("move record", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO moves (game_id, move_number, move_coord,
				fen_after_move, player_color, move_time_utc)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.GameID, rec.MoveNumber, rec.MoveCoord,
			rec.FENAfterMove, rec.PlayerColor, rec.MoveTimeUTC)
		return err
	})
}

// DeleteUndoneMoves trims move rows past keepThrough after an undo.
func (s *Store) DeleteUndoneMoves(gameID string, keepThrough int) {
	s.submitWrite("undo trim", func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`DELETE FROM moves WHERE game_id = ? AND move_number > ?`,
			gameID, keepThrough)
		return err
	})
}

// QueryGames lists games, newest first. Either filter may be empty or
// "*" to match everything.
func (s *Store) QueryGames(gameID, playerID string) ([]GameRecord, error) {
	query := `SELECT game_id, initial_fen,
		white_player_id, white_name, black_player_id, black_name,
		start_time_utc FROM games WHERE 1=1`
	var args []any

	if gameID != "" && gameID != "*" {
		query += ` AND game_id = ?`
		args = append(args, gameID)
	}
	if playerID != "" && playerID != "*" {
		query += ` AND (white_player_id = ? OR black_player_id = ?)`
		args = append(args, playerID, playerID)
	}
	query += ` ORDER BY start_time_utc DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		err := rows.Scan(&g.GameID, &g.InitialFEN,
			&g.WhitePlayerID, &g.WhiteName, &g.BlackPlayerID, &g.BlackName,
			&g.StartTimeUTC)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// QueryMoves returns a game's recorded moves in play order.
func (s *Store) QueryMoves(gameID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(
		`SELECT move_id, game_id, move_number, move_coord,
			fen_after_move, player_color, move_time_utc
		 FROM moves WHERE game_id = ? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		err := rows.Scan(&m.MoveID, &m.GameID, &m.MoveNumber, &m.MoveCoord,
			&m.FENAfterMove, &m.PlayerColor, &m.MoveTimeUTC)
		if err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}
