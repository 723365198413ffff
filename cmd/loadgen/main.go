// Command loadgen floods the score topic with synthetic submissions so
// the ingestion path and ranking queries can be exercised under load.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// ScoreMessage mirrors the consumer's wire format
type ScoreMessage struct {
	EventID   string `json:"event_id,omitempty"`
	PlayerID  string `json:"player_id"`
	Score     int64  `json:"score"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

var playerPrefixes = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
	"Ace", "Bolt", "Crash", "Dash", "Edge", "Flash", "Glitch", "Haze", "Ion", "Jade",
	"Knight", "Luna", "Mystic", "Neon", "Orion", "Pulse", "Quantum", "Rebel", "Spark", "Turbo",
}

func getPlayerName(idx int) string {
	prefixIdx := idx % len(playerPrefixes)
	suffix := idx/len(playerPrefixes) + 1
	return fmt.Sprintf("%s%d", playerPrefixes[prefixIdx], suffix)
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "leaderboard-scores", "Kafka topic")
	totalPlayers := flag.Int("players", 1000, "Total number of players to create")
	submissionsPerSecond := flag.Int("rate", 100, "Submissions per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	initialOnly := flag.Bool("initial-only", false, "Only send one score per player, no continuous submissions")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("Leaderboard load generator")
	fmt.Printf("  Brokers:         %s\n", *brokers)
	fmt.Printf("  Topic:           %s\n", *topic)
	fmt.Printf("  Total players:   %d\n", *totalPlayers)
	fmt.Printf("  Submissions/sec: %d\n", *submissionsPerSecond)
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Create producer
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	// Send message helper
	sendMessage := func(msg ScoreMessage) {
		msg.EventID = uuid.NewString()
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			return
		}

		pm := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(msg.PlayerID),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- pm:
		case <-done:
			return
		}
	}

	shutdown := func(reason string) {
		fmt.Printf("\n\n%s\n", reason)
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	// Seed every player with one score
	fmt.Printf("Seeding %d players...\n", *totalPlayers)
	for i := 0; i < *totalPlayers; i++ {
		sendMessage(ScoreMessage{
			PlayerID: getPlayerName(i),
			Score:    int64(rand.Intn(5000) + 1000),
		})
	}
	fmt.Printf("Seeded %d players\n\n", *totalPlayers)

	if *initialOnly {
		shutdown("Initial-only mode: exiting after seeding players")
		return
	}

	// Start continuous submissions; top players submit more often so the
	// head of the leaderboard keeps moving
	fmt.Printf("Starting continuous submissions (%d/sec), press Ctrl+C to stop\n\n", *submissionsPerSecond)

	interval := time.Second / time.Duration(*submissionsPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var submitCount int64

	for {
		select {
		case <-sigChan:
			shutdown("Shutting down...")
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				shutdown("Duration reached, shutting down...")
				return
			}

			// 70% chance to pick from the top 20 players
			var playerIdx int
			if rand.Intn(100) < 70 {
				playerIdx = rand.Intn(20)
			} else {
				playerIdx = rand.Intn(*totalPlayers-20) + 20
			}

			// Score based on player position
			var score int64
			if playerIdx < 10 {
				score = int64(rand.Intn(800) + 5000)
			} else if playerIdx < 50 {
				score = int64(rand.Intn(600) + 3000)
			} else {
				score = int64(rand.Intn(2000) + 200)
			}

			sendMessage(ScoreMessage{
				PlayerID:  getPlayerName(playerIdx),
				Score:     score,
				Timestamp: time.Now().Unix(),
			})
			atomic.AddInt64(&submitCount, 1)

		case <-statsTicker.C:
			fmt.Printf("[%s] Submitted: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&submitCount),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
