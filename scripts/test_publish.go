//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type AppointmentChangedEvent struct {
	UserID        uuid.UUID `json:"user_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Change        string    `json:"change"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	userID := flag.String("user", "", "User ID whose sessions should resync (random if empty)")
	change := flag.String("change", "updated", "Change kind: created, updated, deleted")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	uid := uuid.New()
	if *userID != "" {
		parsed, err := uuid.Parse(*userID)
		if err != nil {
			log.Fatalf("Invalid user ID: %v", err)
		}
		uid = parsed
	}

	event := AppointmentChangedEvent{
		UserID:        uid,
		AppointmentID: uuid.New(),
		Change:        *change,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:appointments:changed",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("✅ Event published successfully!\n")
	fmt.Printf("   Stream: stream:appointments:changed\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   User ID: %s\n", event.UserID)
	fmt.Printf("   Appointment ID: %s\n", event.AppointmentID)
	fmt.Printf("   Change: %s\n", event.Change)
}
