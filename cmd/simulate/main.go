// simulate plays a full Paren Maren game locally against the engine with a
// seeded dice roller and prints every turn. Handy for eyeballing rule changes
// without a client.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"paren-maren/internal/config"
	"paren-maren/internal/game"
	"paren-maren/internal/logger"
	"paren-maren/internal/room"
	"paren-maren/internal/store"
)

func main() {
	seed := flag.Int64("seed", 1, "dice seed")
	players := flag.Int("players", 2, "number of players")
	target := flag.Int("target", 365, "win score")
	flag.Parse()

	cfg := config.Default()
	cfg.Rules.WinScore = *target

	rm := room.NewManager(store.NewMemoryStore(), cfg, game.NewSeededRoller(*seed), logger.New(false))

	const roomID = "SIM"
	if _, err := rm.CreateRoom(roomID, room.Seed{ID: "p1", Name: "Player 1"}); err != nil {
		fmt.Fprintln(os.Stderr, "create:", err)
		os.Exit(1)
	}
	for i := 2; i <= *players; i++ {
		id := fmt.Sprintf("p%d", i)
		if _, err := rm.Join(roomID, room.Seed{ID: id, Name: "Player " + id[1:]}, false); err != nil {
			fmt.Fprintln(os.Stderr, "join:", err)
			os.Exit(1)
		}
	}

	snap, err := rm.Start(roomID, "p1")
	if err != nil {
		fmt.Fprintln(os.Stderr, "start:", err)
		os.Exit(1)
	}

	turn := 0
	for snap.Phase == room.PhasePlaying {
		turn++
		actor := snap.TurnOrder[snap.TurnIndex]

		// Roll twice, take the multiplier when the last die allows it.
		var last room.RollResult
		for i := 0; i < 2; i++ {
			last, err = rm.Roll(roomID, actor, 0)
			if err != nil {
				fmt.Fprintln(os.Stderr, "roll:", err)
				os.Exit(1)
			}
		}
		if last.Snapshot.CanParenMaren {
			res, err := rm.RollParenMaren(roomID, actor, 0)
			if err != nil {
				fmt.Fprintln(os.Stderr, "paren maren:", err)
				os.Exit(1)
			}
			fmt.Printf("turn %3d: %s dice=%v paren maren x%d\n", turn, actor, res.Snapshot.Dice, res.Multiplier)
		} else {
			fmt.Printf("turn %3d: %s dice=%v\n", turn, actor, last.Snapshot.Dice)
		}

		snap, err = rm.EndTurn(roomID, actor)
		if err != nil {
			fmt.Fprintln(os.Stderr, "end turn:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("\ngame over after %d turns, winner: %s\n", turn, snap.Winner)
	js, _ := json.MarshalIndent(snap, "", "  ")
	fmt.Println(string(js))
}
