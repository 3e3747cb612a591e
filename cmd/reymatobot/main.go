// reymatobot floods a room with simple computer players: they wander their
// quadrant, jump and swing at random, and serve when the crown demands it.
// Useful for soak testing a server and for filling out a court.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/decred/slog"

	"github.com/Gustavogamboa96/reymato-server/client"
	"github.com/Gustavogamboa96/reymato-server/protocol"
)

const inputPeriod = 100 * time.Millisecond

func runBot(ctx context.Context, addr, room, nick string, log slog.Logger) error {
	c, err := client.New(&client.Config{
		ServerAddr: addr,
		Room:       room,
		Nick:       nick,
		Log:        log,
	})
	if err != nil {
		return err
	}
	defer c.Close()
	go c.Run(ctx)

	rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(len(nick))))
	move := [2]float32{}
	ticker := time.NewTicker(inputPeriod)
	defer ticker.Stop()
	retarget := time.NewTicker(time.Duration(1+rng.Intn(3)) * time.Second)
	defer retarget.Stop()

	mustServe := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-c.ErrorsCh:
			return err
		case ev := <-c.EventCh:
			switch ev.Type {
			case protocol.EventServeReady:
				mustServe = ev.Server == c.ID
			case protocol.EventServe:
				mustServe = false
			case protocol.EventMatchEnd:
				// Somebody has to ask; every bot does.
				_ = c.RequestRematch()
			}
		case <-retarget.C:
			move = [2]float32{rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		case <-ticker.C:
			in := protocol.Input{
				Move: move,
				Jump: rng.Float32() < 0.05,
			}
			switch {
			case mustServe:
				in.Action = protocol.ActionServe
			case rng.Float32() < 0.15:
				in.Action = protocol.ActionKick
			case rng.Float32() < 0.05:
				in.Action = protocol.ActionHead
			}
			if err := c.SendInput(in); err != nil {
				return err
			}
		}
	}
}

func realMain() error {
	addr := flag.String("addr", "127.0.0.1:8080", "server host:port")
	room := flag.String("room", "plaza", "room to join")
	count := flag.Int("bots", 4, "number of bots")
	debugLevel := flag.String("debuglevel", "info", "log level")
	flag.Parse()

	backend := slog.NewBackend(os.Stdout)
	log := backend.Logger("BOT")
	if level, ok := slog.LevelFromString(*debugLevel); ok {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < *count; i++ {
		nick := fmt.Sprintf("bot-%d", i+1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runBot(ctx, *addr, *room, nick, log); err != nil && ctx.Err() == nil {
				log.Errorf("%s: %v", nick, err)
			}
		}()
		// Stagger joins so the seating order is stable.
		time.Sleep(50 * time.Millisecond)
	}
	wg.Wait()
	return nil
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
