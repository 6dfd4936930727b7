// Package game implements the turn-based party game core: who is up, which
// card they draw, and the per-player statistics that accumulate until the
// game ends.
//
// The main type is Engine, which owns a single Session and serialises every
// operation on it behind one mutex.
//
// # Basic Usage
//
//	store := deck.NewDirStore("decks")
//	e := game.NewEngine(store, randutil.New(seed))
//	if err := e.StartGame([]string{"Alice", "Bob"}, []string{"questions"}); err != nil {
//	    // InvalidSetupError or *deck.LoadError
//	}
//	res, _ := e.DrawCard()
//	if res.Exhausted {
//	    // offer SkipPlayer or EndGame
//	}
//	_ = e.ResolveTurn(game.Drank)
//
// # Card Selection
//
// Eligible cards are pooled across every selected deck and one is chosen
// uniformly from the pool, so a deck with more unseen cards is proportionally
// more likely to supply the next card. A card drawn by a player is never
// eligible for that player again, including cards replaced by Regenerate.
//
// # Deterministic Testing
//
// The random source and the clock are injected:
//
//	clock := quartz.NewMock(t)
//	e := game.NewEngine(store, randutil.New(42), game.WithClock(clock))
//	e.DrawCard()
//	clock.Advance(30 * time.Second)
//	e.ResolveTurn(game.Answered) // Alice's time is now exactly 30s
package game
