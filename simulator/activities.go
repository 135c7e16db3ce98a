package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"devconnect/internal/models"

	"github.com/google/uuid"
)

func (s *Simulator) SimulateActivities(ctx context.Context) error {
	log.Printf("Starting activities simulation...")

	// Comments and votes wait until there is something to comment and vote on.
	postsAvailable := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulatePosts(ctx, postsAvailable)
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.stats.mu.RLock()
				if s.stats.TotalPosts >= 10 {
					s.stats.mu.RUnlock()
					close(postsAvailable)
					return
				}
				s.stats.mu.RUnlock()
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-postsAvailable:
			log.Printf("Starting comments after posts available...")
			s.simulateComments(ctx)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-postsAvailable:
			log.Printf("Starting votes after posts available...")
			s.simulateVotes(ctx)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateMessaging(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) simulatePosts(ctx context.Context, postsAvailable chan struct{}) {
	log.Printf("Starting post simulation...")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			users := s.users
			s.mu.RUnlock()

			for _, user := range users {
				if !user.IsConnected || len(user.Communities) == 0 {
					continue
				}

				if rand.Float64() < (s.config.PostFrequency/3600.0)/2.0 {
					communityID := user.Communities[rand.Intn(len(user.Communities))]

					postData := map[string]interface{}{
						"title":       fmt.Sprintf("Post by %s at %d", user.Username, time.Now().Unix()),
						"content":     fmt.Sprintf("Content from %s: %s", user.Username, time.Now().Format(time.RFC3339)),
						"communityId": communityID.String(),
					}

					resp, err := s.makeRequest(user, "POST", "/api/posts", postData)
					if err != nil {
						log.Printf("Failed to create post: %v", err)
						continue
					}

					var post struct {
						ID string `json:"id"`
					}
					if json.Unmarshal(resp, &post) == nil {
						if postID, err := uuid.Parse(post.ID); err == nil {
							s.mu.Lock()
							user.Posts = append(user.Posts, postID)
							s.mu.Unlock()
						}
					}

					s.stats.mu.Lock()
					s.stats.TotalPosts++
					postCount := s.stats.TotalPosts
					s.stats.mu.Unlock()

					log.Printf("Created post by user %s (Total: %d)", user.Username, postCount)
				}
			}
		}
	}
}

func (s *Simulator) simulateComments(ctx context.Context) {
	log.Printf("Starting comment simulation...")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			users := s.users
			s.mu.RUnlock()

			for _, user := range users {
				if !user.IsConnected {
					continue
				}

				if rand.Float64() < (s.config.CommentFrequency/3600.0)/2.0 {
					postID, err := s.getRandomPost(user)
					if err != nil {
						continue
					}

					data := map[string]interface{}{
						"content": fmt.Sprintf("Comment from %s at %s", user.Username, time.Now().Format(time.RFC3339)),
						"postId":  postID.String(),
					}

					if _, err := s.makeRequest(user, "POST", "/api/comments", data); err != nil {
						log.Printf("Failed to create comment: %v", err)
						continue
					}

					s.stats.mu.Lock()
					s.stats.TotalComments++
					commentCount := s.stats.TotalComments
					s.stats.mu.Unlock()
					log.Printf("Created comment by user %s (Total: %d)", user.Username, commentCount)
				}
			}
		}
	}
}

func (s *Simulator) simulateVotes(ctx context.Context) {
	log.Printf("Starting vote simulation...")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			users := s.users
			s.mu.RUnlock()

			for _, user := range users {
				if !user.IsConnected {
					continue
				}

				if rand.Float64() < (s.config.VoteFrequency/3600.0)/2.0 {
					postID, err := s.getRandomPost(user)
					if err != nil {
						continue
					}

					if user.VotedPosts[postID] {
						continue
					}

					value := 1
					if rand.Float64() >= 0.7 {
						value = -1
					}
					data := map[string]interface{}{
						"postId": postID.String(),
						"value":  value,
					}

					if _, err := s.makeRequest(user, "POST", "/api/posts/vote", data); err == nil {
						s.mu.Lock()
						user.VotedPosts[postID] = true
						s.mu.Unlock()

						s.stats.mu.Lock()
						s.stats.TotalVotes++
						s.stats.mu.Unlock()
						log.Printf("Created vote by user %s (value: %d)", user.Username, value)
					}
				}
			}
		}
	}
}

// simulateMessaging sends direct messages, preceded by a typing indicator the
// way a browser client would emit one.
func (s *Simulator) simulateMessaging(ctx context.Context) {
	log.Printf("Starting messaging simulation...")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			users := s.users
			s.mu.RUnlock()

			for _, user := range users {
				if !user.IsConnected || len(user.Conversations) == 0 {
					continue
				}

				if rand.Float64() < (s.config.MessageFrequency/3600.0)/2.0 {
					conversationID := user.Conversations[rand.Intn(len(user.Conversations))]

					typingData := map[string]interface{}{
						"conversationId": conversationID.String(),
						"username":       user.Username,
						"typing":         true,
					}
					s.makeRequest(user, "POST", "/api/messages/typing", typingData)

					// A human types for a moment before hitting send.
					time.Sleep(time.Duration(rand.Intn(2000)+500) * time.Millisecond)

					messageData := map[string]interface{}{
						"conversationId": conversationID.String(),
						"content":        fmt.Sprintf("Message from %s at %s", user.Username, time.Now().Format(time.RFC3339)),
					}
					if _, err := s.makeRequest(user, "POST", "/api/messages", messageData); err != nil {
						log.Printf("Failed to send message: %v", err)
						continue
					}

					s.stats.mu.Lock()
					s.stats.TotalMessages++
					messageCount := s.stats.TotalMessages
					s.stats.mu.Unlock()
					log.Printf("Sent message by user %s (Total: %d)", user.Username, messageCount)
				}
			}
		}
	}
}

// getRandomPost picks a post from one of the user's communities.
func (s *Simulator) getRandomPost(user *SimulatedUser) (uuid.UUID, error) {
	if len(user.Communities) == 0 {
		return uuid.Nil, fmt.Errorf("no community memberships")
	}

	shuffled := make([]uuid.UUID, len(user.Communities))
	copy(shuffled, user.Communities)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, communityID := range shuffled {
		resp, err := s.makeRequest(user, "GET", fmt.Sprintf("/api/posts/feed?communityId=%s", communityID), nil)
		if err != nil {
			continue
		}

		var posts []models.Post
		if err := json.Unmarshal(resp, &posts); err != nil {
			continue
		}
		if len(posts) == 0 {
			continue
		}

		return posts[rand.Intn(len(posts))].ID, nil
	}

	return uuid.Nil, fmt.Errorf("no posts found in any joined community")
}
