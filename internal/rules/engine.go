package rules

import (
	"strings"

	"github.com/hailam/chesspuzzles/internal/board"
)

// Engine is the oracle backed by the board package's move generator.
type Engine struct{}

var _ Oracle = Engine{}

func (Engine) load(fen string) (*board.Position, error) {
	return board.ParseFEN(fen)
}

func (e Engine) LegalMoves(fen string, from board.Square) ([]MoveOption, error) {
	pos, err := e.load(fen)
	if err != nil {
		return nil, err
	}
	var opts []MoveOption
	seen := make(map[board.Square]bool)
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.From() != from || seen[m.To()] {
			continue
		}
		seen[m.To()] = true
		opts = append(opts, MoveOption{
			To:        m.To(),
			Promotion: m.IsPromotion(),
			Capture:   m.IsCapture(pos),
		})
	}
	return opts, nil
}

func (e Engine) LegalDestinations(fen string, from board.Square) ([]board.Square, error) {
	opts, err := e.LegalMoves(fen, from)
	if err != nil {
		return nil, err
	}
	return destinations(opts), nil
}

func (e Engine) ApplyMove(fen string, from, to board.Square, promo board.PieceType) (string, Move, error) {
	pos, err := e.load(fen)
	if err != nil {
		return "", Move{}, err
	}
	illegal := func(reason string) (string, Move, error) {
		return "", Move{}, &IllegalMoveError{FEN: fen, Move: from.String() + to.String(), Reason: reason}
	}

	var candidates []board.Move
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.From() == from && m.To() == to {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		// Castling may be entered as king takes own rook.
		if m, ok := castleOntoRook(pos, from, to); ok {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return illegal("")
	}

	chosen := candidates[0]
	if chosen.IsPromotion() {
		if promo == board.NoPieceType {
			return "", Move{}, ErrPromotionRequired
		}
		if !promo.IsPromotion() {
			return illegal("cannot promote to " + strings.ToLower(promo.String()))
		}
		for _, m := range candidates {
			if m.Promotion() == promo {
				chosen = m
			}
		}
	}
	return e.play(pos, chosen)
}

func castleOntoRook(pos *board.Position, from, to board.Square) (board.Move, bool) {
	us := pos.SideToMove
	if pos.PieceAt(from) != board.NewPiece(board.King, us) || pos.PieceAt(to) != board.NewPiece(board.Rook, us) {
		return board.NoMove, false
	}
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.IsCastling() && m.From() == from && (m.To() > from) == (to > from) {
			return m, true
		}
	}
	return board.NoMove, false
}

func (e Engine) ApplyMoveBySAN(fen, notation string) (string, Move, error) {
	pos, err := e.load(fen)
	if err != nil {
		return "", Move{}, err
	}
	m, sanErr := board.ParseSAN(notation, pos)
	if sanErr != nil && looksLikeCoordinates(strings.TrimSpace(notation)) {
		m, err = board.ParseUCI(notation, pos)
		if err == nil {
			sanErr = nil
		}
	}
	if sanErr != nil {
		return "", Move{}, &IllegalMoveError{FEN: fen, Move: notation, Reason: sanErr.Error()}
	}
	return e.play(pos, m)
}

func (Engine) play(pos *board.Position, m board.Move) (string, Move, error) {
	desc := Move{
		From:      m.From(),
		To:        m.To(),
		Promotion: m.Promotion(),
		SAN:       m.ToSAN(pos),
		UCI:       m.String(),
		Capture:   m.IsCapture(pos),
	}
	next := pos.Copy()
	next.MakeMove(m)
	desc.Check = next.InCheck()
	desc.Checkmate = next.IsCheckmate()
	return next.ToFEN(), desc, nil
}

func (e Engine) IsCheckmate(fen string) (bool, error) {
	pos, err := e.load(fen)
	if err != nil {
		return false, err
	}
	return pos.IsCheckmate(), nil
}

func (e Engine) IsDraw(fen string) (bool, error) {
	pos, err := e.load(fen)
	if err != nil {
		return false, err
	}
	return pos.IsDraw(), nil
}
