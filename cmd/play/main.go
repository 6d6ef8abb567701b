package main

import (
	"bufio"
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/invin-app/invin-core/internal/config"
	"github.com/invin-app/invin-core/internal/feed"
	"github.com/invin-app/invin-core/internal/puzzle"
	"github.com/invin-app/invin-core/internal/session"
)

// play is a headless harness: it drives the session engine from stdin
// and completes transitions immediately, the no-op signal path.
func main() {
	log.SetOutput(ioutil.Discard)

	cfg, err := config.InitClientConfig()
	if err != nil {
		panic(err)
	}

	client := feed.NewClient(cfg.Feed.BaseURL, cfg.Session.Token)
	if client.Token() == "" {
		if err := client.DevLogin(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "dev login failed: %v\n", err)
			os.Exit(1)
		}
	}

	ui := &consoleUI{done: make(chan struct{}, 1)}
	engine := session.New(client, client, ui, session.Config{
		PageSize:    cfg.Feed.PageSize,
		AutoRefetch: false,
	})
	ui.engine = engine

	engine.Start()
	ui.loop()
}

type consoleUI struct {
	engine *session.Engine
	done   chan struct{}
}

func (ui *consoleUI) loop() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		<-ui.done
		item, ok := ui.engine.CurrentItem()
		if !ok {
			stats := ui.engine.Stats()
			fmt.Printf("\nsession over: %d played, %d correct, best streak %d\n",
				stats.Played, stats.Correct, stats.BestStreak)
			return
		}
		ui.printItem(item)
		if !ui.handleInput(scanner, item) {
			return
		}
	}
}

func (ui *consoleUI) printItem(item feed.Playable) {
	fmt.Printf("\n[%s] %s\n", item.Category, item.Title)
	if text, ok := item.Question["text"].(string); ok {
		fmt.Println(text)
	}
	for i, option := range item.Options {
		fmt.Printf("  %d. %s\n", i+1, option)
	}
	if item.Kind == feed.KindChessMate {
		fmt.Println("enter moves as from-to squares, e.g. e2e4 (or 'skip')")
	} else {
		fmt.Println("type your answer (or 'skip')")
	}
}

// handleInput reads one action per line until the round resolves.
func (ui *consoleUI) handleInput(scanner *bufio.Scanner, item feed.Playable) bool {
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return false
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" {
			return false
		}
		if input == "skip" {
			ui.engine.Skip()
			return true
		}
		if item.Kind == feed.KindChessMate {
			if len(input) < 4 {
				fmt.Println("need a from-to move like e2e4")
				continue
			}
			ui.engine.AttemptMove(input[:2], input[2:4])
		} else {
			ui.engine.SubmitAnswer(input)
		}
		return true
	}
}

// session.Listener

func (ui *consoleUI) StateChanged(state session.State) {
	switch state {
	case session.StatePlaying:
		select {
		case ui.done <- struct{}{}:
		default:
		}
	case session.StateShowingFeedback:
		// advance immediately; the console has no swipe gesture
		ui.engine.Advance()
	case session.StateTransitioning:
		ui.engine.CompleteTransition()
	}
}

func (ui *consoleUI) FeedbackReady(fb session.Feedback) {
	if fb.Correct {
		fmt.Printf("correct! streak %d\n", fb.CurrentStreak)
	} else {
		fmt.Printf("wrong, the answer was %q\n", fb.CorrectAnswer)
	}
	if fb.Explanation != "" {
		fmt.Println(fb.Explanation)
	}
}

func (ui *consoleUI) StatsUpdated(stats session.Stats) {}

func (ui *consoleUI) HintRevealed(hint string, hintsUsed int) {
	fmt.Printf("hint %d: %s\n", hintsUsed, hint)
}

func (ui *consoleUI) PuzzleUpdated(snap puzzle.Snapshot) {
	if snap.Message != "" {
		fmt.Println(snap.Message)
	}
	fmt.Printf("position: %s (%s)\n", snap.FEN, snap.Status)
	if snap.Status == "playing" {
		// the board is waiting on the player again
		select {
		case ui.done <- struct{}{}:
		default:
		}
	}
}

func (ui *consoleUI) BatchChanged(index, length int) {
	if length > 0 {
		fmt.Printf("\n--- item %d of %d ---\n", index+1, length)
	}
}
