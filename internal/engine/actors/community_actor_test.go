package actors

import (
	stdctx "context"
	"sync"
	"testing"
	"time"

	"devconnect/internal/changefeed"
	"devconnect/internal/database"
	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommunityDB struct {
	database.DBAdapter

	mu          sync.Mutex
	communities map[uuid.UUID]*models.Community
	members     map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeCommunityDB() *fakeCommunityDB {
	return &fakeCommunityDB{
		communities: make(map[uuid.UUID]*models.Community),
		members:     make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (f *fakeCommunityDB) CreateCommunity(ctx stdctx.Context, community *models.Community) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.communities {
		if existing.Name == community.Name {
			return utils.NewAppError(utils.ErrCommunityExists, "community name already taken", nil)
		}
	}
	stored := *community
	f.communities[community.ID] = &stored
	return nil
}

func (f *fakeCommunityDB) UpdateCommunityMembership(ctx stdctx.Context, communityID, userID uuid.UUID, join bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	community, ok := f.communities[communityID]
	if !ok {
		return utils.NewAppError(utils.ErrCommunityNotFound, "community not found", nil)
	}
	if f.members[communityID] == nil {
		f.members[communityID] = make(map[uuid.UUID]bool)
	}
	if join {
		f.members[communityID][userID] = true
		community.MemberCount++
	} else {
		delete(f.members[communityID], userID)
		community.MemberCount--
	}
	return nil
}

func (f *fakeCommunityDB) GetAllCommunities(ctx stdctx.Context, requestingUserID uuid.UUID) ([]*models.Community, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := []*models.Community{}
	for _, community := range f.communities {
		result := *community
		result.IsMember = f.members[community.ID][requestingUserID]
		all = append(all, &result)
	}
	return all, nil
}

func newCommunityFixture(t *testing.T) (*actor.ActorSystem, *actor.PID, *fakeCommunityDB) {
	t.Helper()

	db := newFakeCommunityDB()
	bus := changefeed.NewLocalBus()

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCommunityActor(db, bus)
	})
	pid := system.Root.Spawn(props)
	t.Cleanup(func() {
		system.Root.Stop(pid)
		bus.Close()
	})
	return system, pid, db
}

func TestCreateCommunityCreatorAutoJoins(t *testing.T) {
	system, pid, _ := newCommunityFixture(t)
	creator := uuid.New()

	result := ask(t, system, pid, &CreateCommunityMsg{
		Name:        "gophers",
		Description: "all things Go",
		CreatorID:   creator,
	})
	community, ok := result.(*models.Community)
	require.True(t, ok, "expected *models.Community, got %T: %v", result, result)
	assert.Equal(t, 1, community.MemberCount)
	assert.True(t, community.IsMember)

	mustAppError(t, ask(t, system, pid, &CreateCommunityMsg{
		Name:      "gophers",
		CreatorID: uuid.New(),
	}), utils.ErrCommunityExists)
}

func TestGetCountsAlwaysAnswers(t *testing.T) {
	system, pid, _ := newCommunityFixture(t)

	count := ask(t, system, pid, &GetCountsMsg{}).(int)
	assert.Equal(t, 0, count)

	creator := uuid.New()
	for _, name := range []string{"gophers", "rustaceans"} {
		ask(t, system, pid, &CreateCommunityMsg{Name: name, CreatorID: creator})
	}

	// The health check depends on this reply arriving well inside the
	// request timeout.
	future := system.Root.RequestFuture(pid, &GetCountsMsg{}, 2*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	assert.Equal(t, 2, result.(int))
}
