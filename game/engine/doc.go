// Package engine provides the core rules of the four-color race game.
//
// The engine package implements:
//   - Board topology: the shared loop, each color's entry cell and
//     private home lane, and the capture-immune safe cells
//   - Player and piece state (jail, loop, home lane, finished)
//   - The turn controller: dice rolls, doubles rerolls and the
//     consecutive doubles penalty
//   - The move resolver: legal move queries, jail release, home lane
//     entry, captures and victory detection
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by Game. Board is the immutable topology, loaded from a
// BoardConfig (ClassicBoardConfig or a JSON file). Dice is the source of
// rolls; SequenceDice makes games reproducible.
//
// Usage:
//
//	g, err := engine.NewGame(engine.DefaultBoard(), engine.DefaultRules(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	g.AddPlayer(aliceID, "alice", engine.Red)
//	g.AddPlayer(bobID, "bob", engine.Blue)
//	g.Start()
//
//	roll, err := g.Roll(aliceID)
//	if err == nil && roll.AwaitingMove() {
//		result, err := g.ApplyMove(aliceID, roll.Legal[0])
//		...
//	}
//
// Game Rules:
//
// Pieces start in jail and leave it only on a double, which then must be
// used to release a jailed piece. A piece travels the loop and turns onto
// its home lane once its loop index passes the loop length; it must land
// exactly on the final cell to finish. Landing on an opponent outside a
// safe cell sends the opponent back to jail. Doubles grant another roll;
// the third double in a row jails one of the roller's pieces and ends the
// turn. The first player with all four pieces finished wins.
//
// Concurrency:
//
// Game is not safe for concurrent use. The session package owns the single
// game and serializes every call behind one lock.
package engine
