package actors

import (
	stdctx "context"
	"sort"
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

// fakeCommentDB holds posts and comments in memory. Soft-deleted comments
// keep their row with blanked content, mirroring the SQL repository.
type fakeCommentDB struct {
	database.DBAdapter

	mu       sync.Mutex
	posts    map[uuid.UUID]*models.Post
	comments map[uuid.UUID]*models.Comment
}

func newFakeCommentDB() *fakeCommentDB {
	return &fakeCommentDB{
		posts:    make(map[uuid.UUID]*models.Post),
		comments: make(map[uuid.UUID]*models.Comment),
	}
}

func (f *fakeCommentDB) addPost(post *models.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.ID] = post
}

func (f *fakeCommentDB) GetPost(ctx stdctx.Context, postID uuid.UUID, requestingUserID uuid.UUID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[postID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "post not found", nil)
	}
	result := *post
	return &result, nil
}

func (f *fakeCommentDB) SaveComment(ctx stdctx.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *comment
	f.comments[comment.ID] = &stored
	return nil
}

func (f *fakeCommentDB) GetComment(ctx stdctx.Context, id uuid.UUID) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "comment not found", nil)
	}
	result := *comment
	return &result, nil
}

func (f *fakeCommentDB) GetPostComments(ctx stdctx.Context, postID uuid.UUID) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flat := []*models.Comment{}
	for _, comment := range f.comments {
		if comment.PostID == postID {
			result := *comment
			flat = append(flat, &result)
		}
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].CreatedAt.Before(flat[j].CreatedAt) })
	return flat, nil
}

func (f *fakeCommentDB) SoftDeleteComment(ctx stdctx.Context, commentID, authorID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[commentID]
	if !ok || comment.IsDeleted || comment.AuthorID != authorID {
		return utils.NewAppError(utils.ErrNotFound, "comment not found or not owned by author", nil)
	}
	comment.Content = ""
	comment.IsDeleted = true
	return nil
}

func newCommentFixture(t *testing.T) (*actor.ActorSystem, *actor.PID, *fakeCommentDB, *eventRecorder) {
	t.Helper()

	db := newFakeCommentDB()
	bus := changefeed.NewLocalBus()
	recorder := &eventRecorder{}
	bus.Subscribe(recorder.record)

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCommentActor(db, bus)
	})
	pid := system.Root.Spawn(props)

	t.Cleanup(func() {
		system.Root.Stop(pid)
		bus.Close()
	})
	return system, pid, db, recorder
}

func seedPost(db *fakeCommentDB) *models.Post {
	post := &models.Post{
		ID:        uuid.New(),
		AuthorID:  uuid.New(),
		Title:     "Go 1.23 release notes",
		Content:   "What stood out to you?",
		CreatedAt: time.Now(),
	}
	db.addPost(post)
	return post
}

func TestCreateCommentOnExistingPost(t *testing.T) {
	system, pid, db, recorder := newCommentFixture(t)
	post := seedPost(db)
	author := uuid.New()

	result := ask(t, system, pid, &CreateCommentMsg{
		Content:  "iterators finally",
		AuthorID: author,
		PostID:   post.ID,
	})
	comment, ok := result.(*models.Comment)
	require.True(t, ok, "expected *models.Comment, got %T: %v", result, result)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, author, comment.AuthorID)
	assert.Nil(t, comment.ParentID)

	events := recorder.all()
	require.Len(t, events, 1)
	assert.Equal(t, changefeed.CommentsChannel(post.ID.String()), events[0].Channel)
	assert.Equal(t, changefeed.OpInsert, events[0].Op)
	assert.Equal(t, comment.ID.String(), events[0].RecordID)
}

func TestCreateCommentValidation(t *testing.T) {
	system, pid, db, _ := newCommentFixture(t)
	post := seedPost(db)

	mustAppError(t, ask(t, system, pid, &CreateCommentMsg{
		AuthorID: uuid.New(),
		PostID:   post.ID,
	}), utils.ErrInvalidInput)

	mustAppError(t, ask(t, system, pid, &CreateCommentMsg{
		Content:  "orphaned",
		AuthorID: uuid.New(),
		PostID:   uuid.New(),
	}), utils.ErrNotFound)

	missingParent := uuid.New()
	mustAppError(t, ask(t, system, pid, &CreateCommentMsg{
		Content:  "reply to nothing",
		AuthorID: uuid.New(),
		PostID:   post.ID,
		ParentID: &missingParent,
	}), utils.ErrNotFound)
}

func TestReplyMustShareParentPost(t *testing.T) {
	system, pid, db, _ := newCommentFixture(t)
	postA := seedPost(db)
	postB := seedPost(db)

	parent := ask(t, system, pid, &CreateCommentMsg{
		Content:  "top level on A",
		AuthorID: uuid.New(),
		PostID:   postA.ID,
	}).(*models.Comment)

	mustAppError(t, ask(t, system, pid, &CreateCommentMsg{
		Content:  "cross-post reply",
		AuthorID: uuid.New(),
		PostID:   postB.ID,
		ParentID: &parent.ID,
	}), utils.ErrInvalidInput)

	reply := ask(t, system, pid, &CreateCommentMsg{
		Content:  "same-post reply",
		AuthorID: uuid.New(),
		PostID:   postA.ID,
		ParentID: &parent.ID,
	}).(*models.Comment)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)
}

func TestGetPostCommentsReturnsTree(t *testing.T) {
	system, pid, db, _ := newCommentFixture(t)
	post := seedPost(db)
	author := uuid.New()

	root := ask(t, system, pid, &CreateCommentMsg{
		Content:  "root",
		AuthorID: author,
		PostID:   post.ID,
	}).(*models.Comment)

	// Stagger timestamps so the fake's creation ordering is deterministic.
	time.Sleep(5 * time.Millisecond)
	reply := ask(t, system, pid, &CreateCommentMsg{
		Content:  "child",
		AuthorID: author,
		PostID:   post.ID,
		ParentID: &root.ID,
	}).(*models.Comment)
	time.Sleep(5 * time.Millisecond)
	ask(t, system, pid, &CreateCommentMsg{
		Content:  "grandchild",
		AuthorID: author,
		PostID:   post.ID,
		ParentID: &reply.ID,
	})

	tree := ask(t, system, pid, &GetCommentsForPostMsg{PostID: post.ID}).([]*models.Comment)
	require.Len(t, tree, 1)
	assert.Equal(t, root.ID, tree[0].ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, reply.ID, tree[0].Replies[0].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, "grandchild", tree[0].Replies[0].Replies[0].Content)
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	system, pid, db, recorder := newCommentFixture(t)
	post := seedPost(db)
	author := uuid.New()

	comment := ask(t, system, pid, &CreateCommentMsg{
		Content:  "hot take",
		AuthorID: author,
		PostID:   post.ID,
	}).(*models.Comment)

	mustAppError(t, ask(t, system, pid, &DeleteCommentMsg{
		CommentID: comment.ID,
		AuthorID:  uuid.New(),
	}), utils.ErrUnauthorized)

	status := ask(t, system, pid, &DeleteCommentMsg{
		CommentID: comment.ID,
		AuthorID:  author,
	}).(*models.StatusResponse)
	assert.True(t, status.Success)

	// The row survives with blanked content so replies keep their anchor.
	db.mu.Lock()
	deleted := db.comments[comment.ID]
	assert.True(t, deleted.IsDeleted)
	assert.Empty(t, deleted.Content)
	db.mu.Unlock()

	lastEvent := recorder.all()[len(recorder.all())-1]
	assert.Equal(t, changefeed.OpDelete, lastEvent.Op)
	assert.Equal(t, changefeed.CommentsChannel(post.ID.String()), lastEvent.Channel)
}

func TestDeleteMissingComment(t *testing.T) {
	system, pid, _, _ := newCommentFixture(t)
	mustAppError(t, ask(t, system, pid, &DeleteCommentMsg{
		CommentID: uuid.New(),
		AuthorID:  uuid.New(),
	}), utils.ErrNotFound)
}
