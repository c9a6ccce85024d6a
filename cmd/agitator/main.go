// Package main - agitator
// Load generator for stress testing. Spins up bot crews in pairs: one bot
// creates a room, its partner joins, the pair picks roles, starts a game,
// and both spam random crew commands for the test duration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meltdownclowns/server/internal/protocol"
	"github.com/meltdownclowns/server/internal/sim"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumPairs       int
	ActionInterval time.Duration
	TestDuration   time.Duration
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	GamesStarted     int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

var subsystemIDs = []string{
	"primary-coolant", "secondary-coolant", "control-system", "sensor-array",
	"turbine-generator", "containment-field", "ventilation", "shield-generator",
}

func main() {
	serverURL := flag.String("url", "ws://localhost:3001/ws", "WebSocket server URL")
	numPairs := flag.Int("pairs", 25, "Number of bot pairs (2 clients each)")
	interval := flag.Duration("interval", 100*time.Millisecond, "Command interval per bot")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumPairs:       *numPairs,
		ActionInterval: *interval,
		TestDuration:   *duration,
	}

	fmt.Println("=========================================")
	fmt.Println("🔥 AGITATOR - Stress Test Tool")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Pairs:    %d (%d clients)\n", config.NumPairs, config.NumPairs*2)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\n⚠️ Interrupt received, stopping...")
		cancel()
	}()

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\n🚀 Starting bot pairs...")

	for i := 0; i < config.NumPairs; i++ {
		// The creator hands the room ID to its partner once the lobby
		// acknowledges the room.
		roomID := make(chan string, 1)

		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runBot(ctx, pairID, 0, roomID, config, stats)
		}(i)

		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runBot(ctx, pairID, 1, roomID, config, stats)
		}(i)

		// Stagger pair starts to avoid thundering herd
		time.Sleep(20 * time.Millisecond)
	}

	fmt.Printf("✅ All %d clients started\n\n", config.NumPairs*2)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.MessagesSent)
				recv := atomic.LoadInt64(&stats.MessagesReceived)
				games := atomic.LoadInt64(&stats.GamesStarted)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("📊 Progress: Sent=%d Recv=%d Games=%d Errors=%d\n", sent, recv, games, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

// runBot drives a single client. seat 0 creates the room and starts the
// game; seat 1 waits on roomID and joins.
func runBot(ctx context.Context, pairID, seat int, roomID chan string, config Config, stats *Stats) {
	name := fmt.Sprintf("bot-%03d-%d", pairID, seat)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("%s: connection failed: %v", name, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	send := func(msg protocol.ClientMessage) bool {
		start := time.Now()
		if err := conn.WriteJSON(msg); err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			return false
		}
		atomic.AddInt64(&stats.MessagesSent, 1)
		stats.mu.Lock()
		stats.Latencies = append(stats.Latencies, time.Since(start))
		stats.mu.Unlock()
		return true
	}

	// Receiver: count everything, watch for room and game lifecycle.
	inRoom := make(chan string, 1)   // carries the room ID once seated
	inGame := make(chan struct{}, 1) // closed-ish signal via send once
	full := make(chan struct{}, 1)   // creator: partner arrived

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)

			var envelope struct {
				Type string `json:"type"`
				Room struct {
					ID      string        `json:"id"`
					Players []interface{} `json:"players"`
				} `json:"room"`
			}
			if json.Unmarshal(data, &envelope) != nil {
				continue
			}
			switch envelope.Type {
			case "room-update":
				select {
				case inRoom <- envelope.Room.ID:
				default:
				}
				if len(envelope.Room.Players) >= 2 {
					select {
					case full <- struct{}{}:
					default:
					}
				}
			case "game-start":
				atomic.AddInt64(&stats.GamesStarted, 1)
				select {
				case inGame <- struct{}{}:
				default:
				}
			}
		}
	}()

	send(protocol.ClientMessage{Type: protocol.TypeJoinLobby, PlayerName: name})

	if seat == 0 {
		send(protocol.ClientMessage{Type: protocol.TypeCreateRoom, RoomName: fmt.Sprintf("agitator-%03d", pairID)})
		select {
		case id := <-inRoom:
			roomID <- id
		case <-ctx.Done():
			return
		}
		send(protocol.ClientMessage{Type: protocol.TypeSelectRole, Role: sim.RoleReactorOperator})
		select {
		case <-full:
		case <-ctx.Done():
			return
		}
		send(protocol.ClientMessage{Type: protocol.TypeStartGame})
	} else {
		select {
		case id := <-roomID:
			send(protocol.ClientMessage{Type: protocol.TypeJoinRoom, RoomID: id})
		case <-ctx.Done():
			return
		}
		send(protocol.ClientMessage{Type: protocol.TypeSelectRole, Role: sim.RoleEngineer})
	}

	select {
	case <-inGame:
	case <-ctx.Done():
		return
	}

	// In game: spam random crew commands until the clock runs out.
	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			action := randomAction()
			if !send(protocol.ClientMessage{Type: protocol.TypeGameAction, Action: &action}) {
				return
			}
		}
	}
}

// randomAction returns a plausible crew command. Some will be rejected for
// role mismatch, which exercises the validation path too.
func randomAction() sim.Action {
	switch rand.Intn(6) {
	case 0:
		return sim.Action{Kind: sim.ActionSetControlRods, Position: float64(rand.Intn(101))}
	case 1:
		return sim.Action{Kind: sim.ActionSetCoolantFlow, Level: float64(rand.Intn(101))}
	case 2:
		return sim.Action{Kind: sim.ActionRepairSubsystem, SubsystemID: subsystemIDs[rand.Intn(len(subsystemIDs))]}
	case 3:
		return sim.Action{Kind: sim.ActionVentPressure}
	case 4:
		return sim.Action{Kind: sim.ActionRunDiagnostic, SubsystemID: subsystemIDs[rand.Intn(len(subsystemIDs))]}
	default:
		return sim.Action{Kind: sim.ActionRefillCoolant}
	}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("📊 STRESS TEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	games := atomic.LoadInt64(&stats.GamesStarted)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("Games Started:     %d\n", games)
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f msg/sec\n", throughput)

	if len(stats.Latencies) > 0 {
		var total time.Duration
		var min, max time.Duration = stats.Latencies[0], stats.Latencies[0]

		for _, l := range stats.Latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}

		avg := total / time.Duration(len(stats.Latencies))

		fmt.Printf("\nWrite latency:\n")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", avg)
		fmt.Printf("  Max: %v\n", max)
	}

	fmt.Println("\n-----------------------------------------")
	if errs == 0 && games == int64(config.NumPairs)*2 {
		fmt.Println("✅ TEST PASSED: all crews played, no errors")
	} else if float64(errs)/float64(sent+1) < 0.05 {
		fmt.Println("⚠️ TEST WARNING: some errors detected")
	} else {
		fmt.Println("❌ TEST FAILED: high error rate")
	}
	fmt.Println("=========================================")

	results := map[string]interface{}{
		"messages_sent":      sent,
		"messages_received":  recv,
		"games_started":      games,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"pairs":    config.NumPairs,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	os.WriteFile("stress_test_results.json", jsonData, 0644)
	fmt.Println("\n📁 Results saved to stress_test_results.json")
}
