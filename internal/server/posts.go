package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Post is the demo resource kept from the original front-end contract. It
// lives in an in-memory list only; there is deliberately no persistence.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Content     string     `json:"content"`
	CreateAt    time.Time  `json:"create_at"`
	PublishedAt *time.Time `json:"published_at"`
	Published   bool       `json:"published"`
}

// postList is a mutex-guarded list of posts, seeded with one example entry.
type postList struct {
	mu    sync.RWMutex
	posts []Post
}

func newPostList() *postList {
	return &postList{
		posts: []Post{
			{ID: "1", Title: "Post 1", Content: "Content 1"},
		},
	}
}

func (s *Server) handleListPosts(w http.ResponseWriter, _ *http.Request) {
	s.posts.mu.RLock()
	defer s.posts.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": s.posts.posts})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var post Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid post body")
		return
	}

	post.ID = uuid.NewString()
	if post.CreateAt.IsZero() {
		post.CreateAt = time.Now()
	}

	s.posts.mu.Lock()
	s.posts.posts = append(s.posts.posts, post)
	s.posts.mu.Unlock()

	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.posts.mu.RLock()
	defer s.posts.mu.RUnlock()

	for _, post := range s.posts.posts {
		if post.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"data": post})
			return
		}
	}

	writeDetail(w, http.StatusNotFound, "Post not found")
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.posts.mu.Lock()
	defer s.posts.mu.Unlock()

	for i, post := range s.posts.posts {
		if post.ID == id {
			s.posts.posts = append(s.posts.posts[:i], s.posts.posts[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"data": "Post deleted"})
			return
		}
	}

	writeDetail(w, http.StatusNotFound, "Post not found")
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var update Post
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid post body")
		return
	}

	s.posts.mu.Lock()
	defer s.posts.mu.Unlock()

	for i := range s.posts.posts {
		if s.posts.posts[i].ID == id {
			s.posts.posts[i].Title = update.Title
			s.posts.posts[i].Content = update.Content
			s.posts.posts[i].Author = update.Author
			writeJSON(w, http.StatusOK, map[string]any{
				"data": "Post updated",
				"post": s.posts.posts[i],
			})
			return
		}
	}

	writeDetail(w, http.StatusNotFound, "Post not found")
}
