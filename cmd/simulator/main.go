package main

import (
	"context"
	"log"
	"time"

	"devconnect/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumUsers:         10,
		NumCommunities:   5,
		SimulationTime:   10 * time.Minute,
		PostFrequency:    100.0,
		CommentFrequency: 60.0,
		VoteFrequency:    100.0,
		MessageFrequency: 120.0,
		DisconnectRate:   0.01,
		ReconnectRate:    0.05,
		BaseURL:          "http://localhost:8080",
	}

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	log.Printf("Starting simulation with configuration:")
	log.Printf("- API URL: %s", config.BaseURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Number of communities: %d", config.NumCommunities)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Post frequency: %.2f posts/user/hour", config.PostFrequency)
	log.Printf("- Comment frequency: %.2f comments/user/hour", config.CommentFrequency)
	log.Printf("- Message frequency: %.2f messages/user/hour", config.MessageFrequency)
	log.Printf("- Disconnect rate: %.2f", config.DisconnectRate)
	log.Printf("- Reconnect rate: %.2f", config.ReconnectRate)

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total users: %d", metrics.TotalUsers)
	log.Printf("- Active users at end: %d", metrics.ActiveUsers)
	log.Printf("- Total posts: %d", metrics.TotalPosts)
	log.Printf("- Total comments: %d", metrics.TotalComments)
	log.Printf("- Total messages: %d", metrics.TotalMessages)
	log.Printf("- Error count: %d", metrics.ErrorCount)
}
