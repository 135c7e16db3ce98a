// internal/database/presence_store.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Typing entries expire shortly after the last keystroke so a client that
// disconnects mid-sentence cannot stay "typing" forever. Presence entries get
// a longer lease and are refreshed by heartbeats.
const (
	typingTTL   = 5 * time.Second
	presenceTTL = 90 * time.Second
)

// PresenceStore keeps the ephemeral state (who is online, who is typing) in
// MongoDB with TTL indexes doing the cleanup.
type PresenceStore struct {
	Client   *mongo.Client
	Presence *mongo.Collection
	Typing   *mongo.Collection
}

// NewPresenceStore connects to MongoDB and ensures the TTL indexes exist.
func NewPresenceStore(uri, database string) (*PresenceStore, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	log.Println("Successfully connected to MongoDB!")

	db := client.Database(database)
	store := &PresenceStore{
		Client:   client,
		Presence: db.Collection("user_presence"),
		Typing:   db.Collection("typing_indicators"),
	}

	if err := store.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *PresenceStore) ensureIndexes(ctx context.Context) error {
	_, err := s.Presence.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "last_seen", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(presenceTTL.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to create presence TTL index: %v", err)
	}

	_, err = s.Typing.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(typingTTL.Seconds())),
		},
		{
			Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create typing indexes: %v", err)
	}

	return nil
}

// Close disconnects from MongoDB.
func (s *PresenceStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// SetPresence upserts a user's presence heartbeat.
func (s *PresenceStore) SetPresence(ctx context.Context, presence *models.UserPresence) error {
	presence.LastSeen = time.Now()
	filter := bson.M{"user_id": presence.UserID}
	update := bson.M{"$set": presence}
	_, err := s.Presence.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to set user presence", err)
	}
	return nil
}

// ClearPresence removes a user's presence entry immediately, without waiting
// for the TTL.
func (s *PresenceStore) ClearPresence(ctx context.Context, userID uuid.UUID) error {
	_, err := s.Presence.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to clear user presence", err)
	}
	return nil
}

// GetOnlineUsers lists users whose presence entry is currently online. Away
// and busy users have a live entry but are not reported here.
func (s *PresenceStore) GetOnlineUsers(ctx context.Context) ([]*models.UserPresence, error) {
	cursor, err := s.Presence.Find(ctx, bson.M{"status": models.PresenceOnline})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query online users", err)
	}
	defer cursor.Close(ctx)

	presences := []*models.UserPresence{}
	if err := cursor.All(ctx, &presences); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode online users", err)
	}
	return presences, nil
}

// SetTyping upserts a typing indicator for a user in a conversation.
func (s *PresenceStore) SetTyping(ctx context.Context, indicator *models.TypingIndicator) error {
	indicator.UpdatedAt = time.Now()
	filter := bson.M{"conversation_id": indicator.ConversationID, "user_id": indicator.UserID}
	update := bson.M{"$set": indicator}
	_, err := s.Typing.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to set typing indicator", err)
	}
	return nil
}

// ClearTyping removes a user's typing indicator for a conversation.
func (s *PresenceStore) ClearTyping(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := s.Typing.DeleteOne(ctx, bson.M{"conversation_id": conversationID, "user_id": userID})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to clear typing indicator", err)
	}
	return nil
}

// GetTypingUsers lists who is currently typing in a conversation, excluding
// the requesting user. Entries older than the typing window are filtered out
// even if the TTL monitor has not swept them yet.
func (s *PresenceStore) GetTypingUsers(ctx context.Context, conversationID, excludeUserID uuid.UUID) ([]*models.TypingIndicator, error) {
	cutoff := time.Now().Add(-typingTTL)
	filter := bson.M{
		"conversation_id": conversationID,
		"user_id":         bson.M{"$ne": excludeUserID},
		"updated_at":      bson.M{"$gt": cutoff},
	}
	cursor, err := s.Typing.Find(ctx, filter)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query typing indicators", err)
	}
	defer cursor.Close(ctx)

	indicators := []*models.TypingIndicator{}
	if err := cursor.All(ctx, &indicators); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode typing indicators", err)
	}
	return indicators, nil
}
