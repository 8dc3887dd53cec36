package rules

import (
	"strings"

	chess "github.com/corentings/chess/v2"

	"github.com/hailam/chesspuzzles/internal/board"
)

// Library is the oracle backed by github.com/corentings/chess.
type Library struct{}

var _ Oracle = Library{}

func (Library) game(fen string) (*chess.Game, error) {
	canonical, err := Canonical(fen)
	if err != nil {
		return nil, err
	}
	opt, err := chess.FEN(canonical)
	if err != nil {
		return nil, &board.MalformedPositionError{Input: fen, Reason: err.Error()}
	}
	return chess.NewGame(opt), nil
}

func (l Library) LegalMoves(fen string, from board.Square) ([]MoveOption, error) {
	g, err := l.game(fen)
	if err != nil {
		return nil, err
	}
	var opts []MoveOption
	seen := make(map[string]bool)
	moves := g.ValidMoves()
	for i := range moves {
		m := &moves[i]
		to := m.S2().String()
		if m.S1().String() != from.String() || seen[to] {
			continue
		}
		seen[to] = true
		sq, err := board.ParseSquare(to)
		if err != nil {
			return nil, err
		}
		opts = append(opts, MoveOption{
			To:        sq,
			Promotion: m.Promo() != chess.NoPieceType,
			Capture:   m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant),
		})
	}
	return opts, nil
}

func (l Library) LegalDestinations(fen string, from board.Square) ([]board.Square, error) {
	opts, err := l.LegalMoves(fen, from)
	if err != nil {
		return nil, err
	}
	return destinations(opts), nil
}

func (l Library) ApplyMove(fen string, from, to board.Square, promo board.PieceType) (string, Move, error) {
	g, err := l.game(fen)
	if err != nil {
		return "", Move{}, err
	}
	illegal := func(reason string) (string, Move, error) {
		return "", Move{}, &IllegalMoveError{FEN: fen, Move: from.String() + to.String(), Reason: reason}
	}

	var chosen *chess.Move
	promotes := false
	moves := g.ValidMoves()
	for i := range moves {
		m := &moves[i]
		if m.S1().String() != from.String() || m.S2().String() != to.String() {
			continue
		}
		if m.Promo() == chess.NoPieceType {
			chosen = m
			break
		}
		promotes = true
		if m.Promo() == libraryPiece(promo) {
			chosen = m
		}
	}
	switch {
	case promotes && promo == board.NoPieceType:
		return "", Move{}, ErrPromotionRequired
	case promotes && chosen == nil:
		return illegal("cannot promote to " + strings.ToLower(promo.String()))
	case chosen == nil:
		return illegal("")
	}
	return l.play(g, chosen)
}

func (l Library) ApplyMoveBySAN(fen, notation string) (string, Move, error) {
	g, err := l.game(fen)
	if err != nil {
		return "", Move{}, err
	}
	pos := g.Position()
	m, sanErr := chess.AlgebraicNotation{}.Decode(pos, board.StripAnnotations(notation))
	if sanErr != nil && looksLikeCoordinates(strings.TrimSpace(notation)) {
		if um, err := (chess.UCINotation{}).Decode(pos, strings.ToLower(strings.TrimSpace(notation))); err == nil {
			m, sanErr = um, nil
		}
	}
	if sanErr != nil {
		return "", Move{}, &IllegalMoveError{FEN: fen, Move: notation, Reason: sanErr.Error()}
	}
	return l.play(g, m)
}

func (Library) play(g *chess.Game, m *chess.Move) (string, Move, error) {
	before := g.Position()
	san := chess.AlgebraicNotation{}.Encode(before, m)
	uci := chess.UCINotation{}.Encode(before, m)
	if err := g.Move(m, nil); err != nil {
		return "", Move{}, &IllegalMoveError{FEN: before.String(), Move: uci, Reason: err.Error()}
	}

	from, _ := board.ParseSquare(m.S1().String())
	to, _ := board.ParseSquare(m.S2().String())
	desc := Move{
		From:      from,
		To:        to,
		Promotion: boardPiece(m.Promo()),
		SAN:       san,
		UCI:       uci,
		Capture:   m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant),
		Checkmate: g.Position().Status() == chess.Checkmate,
	}
	desc.Check = desc.Checkmate || strings.HasSuffix(san, "+")

	next, err := Canonical(g.Position().String())
	if err != nil {
		return "", Move{}, err
	}
	return next, desc, nil
}

func (l Library) IsCheckmate(fen string) (bool, error) {
	g, err := l.game(fen)
	if err != nil {
		return false, err
	}
	return g.Position().Status() == chess.Checkmate, nil
}

func (l Library) IsDraw(fen string) (bool, error) {
	g, err := l.game(fen)
	if err != nil {
		return false, err
	}
	return g.Outcome() == chess.Draw || g.Position().Status() == chess.Stalemate, nil
}

func libraryPiece(pt board.PieceType) chess.PieceType {
	switch pt {
	case board.Queen:
		return chess.Queen
	case board.Rook:
		return chess.Rook
	case board.Bishop:
		return chess.Bishop
	case board.Knight:
		return chess.Knight
	}
	return chess.NoPieceType
}

func boardPiece(pt chess.PieceType) board.PieceType {
	switch pt {
	case chess.Queen:
		return board.Queen
	case chess.Rook:
		return board.Rook
	case chess.Bishop:
		return board.Bishop
	case chess.Knight:
		return board.Knight
	}
	return board.NoPieceType
}
