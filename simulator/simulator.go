package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type SimConfig struct {
	NumUsers         int
	NumCommunities   int
	SimulationTime   time.Duration
	PostFrequency    float64
	CommentFrequency float64
	VoteFrequency    float64
	MessageFrequency float64
	DisconnectRate   float64
	ReconnectRate    float64
	BaseURL          string
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	AverageLatency   time.Duration
	ActiveUsers      int
	TotalPosts       int
	TotalComments    int
	TotalVotes       int
	TotalMessages    int
	RequestLatencies []time.Duration
}

// SimulatedUser mirrors one browser session against the API.
type SimulatedUser struct {
	ID            uuid.UUID
	Username      string
	Email         string
	Token         string
	IsConnected   bool
	Posts         []uuid.UUID
	VotedPosts    map[uuid.UUID]bool
	Communities   []uuid.UUID
	Conversations []uuid.UUID
}

type Simulator struct {
	config      SimConfig
	stats       *SimulationStats
	users       []*SimulatedUser
	communities []uuid.UUID
	client      *http.Client
	mu          sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime:        time.Now(),
			RequestLatencies: make([]time.Duration, 0),
		},
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting simulation...")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.SimulateActivities(ctx); err != nil {
			log.Printf("Activities simulation error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateConnectivity(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	log.Printf("Phase 1: Creating %d users...", s.config.NumUsers)
	if err := s.createInitialUsers(ctx); err != nil {
		return fmt.Errorf("failed to create users: %v", err)
	}

	log.Printf("Phase 2: Creating %d communities...", s.config.NumCommunities)
	if err := s.createCommunities(ctx); err != nil {
		return fmt.Errorf("failed to create communities: %v", err)
	}

	log.Printf("Phase 3: Simulating community memberships...")
	if err := s.simulateCommunityJoins(ctx); err != nil {
		return fmt.Errorf("failed to simulate joins: %v", err)
	}

	log.Printf("Phase 4: Opening direct conversations...")
	if err := s.openConversations(ctx); err != nil {
		return fmt.Errorf("failed to open conversations: %v", err)
	}

	log.Printf("Initialization completed successfully")
	return nil
}

func (s *Simulator) createInitialUsers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make([]*SimulatedUser, 0, s.config.NumUsers)

	rateLimiter := time.NewTicker(100 * time.Millisecond)
	defer rateLimiter.Stop()

	for i := 0; i < s.config.NumUsers; i++ {
		<-rateLimiter.C

		user := &SimulatedUser{
			Username:    fmt.Sprintf("dev_%d", i),
			Email:       fmt.Sprintf("dev_%d@test.com", i),
			IsConnected: true,
			VotedPosts:  make(map[uuid.UUID]bool),
		}

		if err := s.registerUser(ctx, user); err != nil {
			log.Printf("Failed to register user %s: %v", user.Username, err)
			continue
		}
		s.users = append(s.users, user)

		if (i+1)%10 == 0 {
			log.Printf("Created %d/%d users...", i+1, s.config.NumUsers)
		}
	}

	log.Printf("Successfully created %d users", len(s.users))
	return nil
}

func (s *Simulator) registerUser(ctx context.Context, user *SimulatedUser) error {
	data := map[string]interface{}{
		"username": user.Username,
		"email":    user.Email,
		"password": "testpass123",
		"fullName": fmt.Sprintf("Dev User %s", user.Username),
	}

	resp, err := s.makeRequest(nil, "POST", "/api/auth/register", data)
	if err != nil {
		return fmt.Errorf("failed to register user: %v", err)
	}

	var result struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to parse registration response: %v", err)
	}

	registeredID, err := uuid.Parse(result.User.ID)
	if err != nil {
		return fmt.Errorf("invalid user ID returned: %v", err)
	}

	user.ID = registeredID
	user.Token = result.Token
	return nil
}

func (s *Simulator) createCommunities(ctx context.Context) error {
	// Top 10% of users found the communities
	numCreators := len(s.users) / 10
	if numCreators == 0 {
		numCreators = 1
	}
	creators := make([]*SimulatedUser, numCreators)
	copy(creators, s.users[:numCreators])

	rand.Shuffle(len(creators), func(i, j int) {
		creators[i], creators[j] = creators[j], creators[i]
	})

	s.communities = make([]uuid.UUID, 0, s.config.NumCommunities)

	for i := 0; i < s.config.NumCommunities; i++ {
		creator := creators[i%len(creators)]

		topic := getRandomTopic()
		name := fmt.Sprintf("%s-%d", topic, i)
		description := fmt.Sprintf("Developers talking about %s", topic)

		data := map[string]interface{}{
			"name":        name,
			"description": description,
		}

		resp, err := s.makeRequest(creator, "POST", "/api/communities", data)
		if err != nil {
			log.Printf("Failed to create community %s: %v", name, err)
			continue
		}

		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp, &result); err != nil {
			continue
		}
		communityID, err := uuid.Parse(result.ID)
		if err != nil {
			continue
		}

		s.communities = append(s.communities, communityID)
		creator.Communities = append(creator.Communities, communityID)

		time.Sleep(100 * time.Millisecond)
	}

	return nil
}

func getRandomTopic() string {
	topics := []string{
		"golang", "rust", "kubernetes", "databases", "frontend",
		"security", "devops", "machine-learning", "compilers", "networking",
		"testing", "open-source", "wasm", "distributed-systems", "observability",
	}
	return topics[rand.Intn(len(topics))]
}

func (s *Simulator) simulateCommunityJoins(ctx context.Context) error {
	for _, user := range s.users {
		if len(user.Communities) > 0 {
			continue
		}

		numJoins := rand.Intn(5) + 1

		available := make([]uuid.UUID, len(s.communities))
		copy(available, s.communities)
		rand.Shuffle(len(available), func(i, j int) {
			available[i], available[j] = available[j], available[i]
		})

		for i := 0; i < numJoins && i < len(available); i++ {
			communityID := available[i]
			data := map[string]interface{}{
				"communityId": communityID.String(),
			}
			if _, err := s.makeRequest(user, "POST", "/api/communities/members", data); err != nil {
				log.Printf("Failed to join community: %v", err)
				continue
			}
			user.Communities = append(user.Communities, communityID)
		}

		time.Sleep(50 * time.Millisecond)
	}

	return nil
}

// openConversations pairs each user with a random peer for direct messaging.
func (s *Simulator) openConversations(ctx context.Context) error {
	if len(s.users) < 2 {
		return nil
	}

	for _, user := range s.users {
		peer := s.users[rand.Intn(len(s.users))]
		if peer.ID == user.ID {
			continue
		}

		data := map[string]interface{}{
			"type":           "direct",
			"participantIds": []string{peer.ID.String()},
		}

		resp, err := s.makeRequest(user, "POST", "/api/conversations", data)
		if err != nil {
			log.Printf("Failed to open conversation: %v", err)
			continue
		}

		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp, &result); err != nil {
			continue
		}
		conversationID, err := uuid.Parse(result.ID)
		if err != nil {
			continue
		}

		user.Conversations = append(user.Conversations, conversationID)
		peer.Conversations = append(peer.Conversations, conversationID)

		time.Sleep(50 * time.Millisecond)
	}

	return nil
}

// makeRequest issues an API call as the given user. A nil user sends an
// unauthenticated request.
func (s *Simulator) makeRequest(user *SimulatedUser, method, endpoint string, data interface{}) ([]byte, error) {
	var body []byte
	var err error

	if data != nil {
		body, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, s.config.BaseURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if user != nil && user.Token != "" {
		req.Header.Set("Authorization", "Bearer "+user.Token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.recordRequestMetrics(start, err)

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (s *Simulator) simulateConnectivity(ctx context.Context) {
	log.Printf("Starting connectivity simulation...")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			for _, user := range s.users {
				if user.IsConnected {
					if rand.Float64() < s.config.DisconnectRate {
						user.IsConnected = false
						data := map[string]interface{}{"status": "offline"}
						s.makeRequest(user, "PUT", "/api/users/presence", data)
					}
				} else {
					if rand.Float64() < s.config.ReconnectRate {
						user.IsConnected = true
						data := map[string]interface{}{"status": "online"}
						s.makeRequest(user, "PUT", "/api/users/presence", data)
					}
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	s.stats.RequestLatencies = append(s.stats.RequestLatencies, latency)

	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	log.Printf("Starting metrics collection...")
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			elapsed := time.Since(s.stats.StartTime)
			requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()
			successRate := 0.0
			if s.stats.TotalRequests > 0 {
				successRate = float64(s.stats.SuccessRequests) / float64(s.stats.TotalRequests) * 100
			}

			activeUsers := 0
			s.mu.RLock()
			for _, user := range s.users {
				if user.IsConnected {
					activeUsers++
				}
			}
			s.mu.RUnlock()

			log.Printf("\nSimulation Metrics (%.1f seconds elapsed):", elapsed.Seconds())
			log.Printf("- Request Rate: %.2f req/sec", requestRate)
			log.Printf("- Success Rate: %.1f%%", successRate)
			log.Printf("- Average Latency: %v", s.stats.AverageLatency)
			log.Printf("- Active Users: %d/%d", activeUsers, len(s.users))
			log.Printf("- Total Posts: %d", s.stats.TotalPosts)
			log.Printf("- Total Comments: %d", s.stats.TotalComments)
			log.Printf("- Total Votes: %d", s.stats.TotalVotes)
			log.Printf("- Total Messages: %d", s.stats.TotalMessages)
			log.Printf("- Failed Requests: %d", s.stats.FailedRequests)
			s.stats.mu.RUnlock()
		}
	}
}

// SimulationMetrics holds the metrics of the simulation
type SimulationMetrics struct {
	TotalUsers        int
	ActiveUsers       int
	TotalPosts        int
	TotalComments     int
	TotalVotes        int
	TotalMessages     int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics
func (s *Simulator) GetMetrics() SimulationMetrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()

	return SimulationMetrics{
		TotalUsers:        len(s.users),
		ActiveUsers:       s.stats.ActiveUsers,
		TotalPosts:        s.stats.TotalPosts,
		TotalComments:     s.stats.TotalComments,
		TotalVotes:        s.stats.TotalVotes,
		TotalMessages:     s.stats.TotalMessages,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: requestRate,
	}
}
