package server

import (
	"github.com/Vixs101/Framez/internal/feed"
	"github.com/Vixs101/Framez/internal/post"
	"github.com/Vixs101/Framez/internal/session"
	"github.com/Vixs101/Framez/internal/upload"
)

type sessionView struct {
	Status  session.Status   `json:"status"`
	UserID  string           `json:"user_id,omitempty"`
	Profile *session.Profile `json:"profile"`
	Error   *errorBody       `json:"error,omitempty"`
}

func newSessionView(s session.Session) sessionView {
	return sessionView{
		Status:  s.Status,
		UserID:  s.UserID,
		Profile: s.Profile,
		Error:   newErrorBody(s.LastError),
	}
}

type feedView struct {
	Scope  string      `json:"scope"`
	Posts  []post.Post `json:"posts"`
	Count  int         `json:"count"`
	Loaded bool        `json:"loaded"`
	Error  *errorBody  `json:"error,omitempty"`
}

func newFeedView(st feed.State) feedView {
	return feedView{
		Scope:  st.Scope.String(),
		Posts:  st.Posts,
		Count:  len(st.Posts),
		Loaded: st.Loaded,
		Error:  newErrorBody(st.Err),
	}
}

type pendingView struct {
	ID       string        `json:"id"`
	AuthorID string        `json:"author_id"`
	Caption  string        `json:"caption,omitempty"`
	HasImage bool          `json:"has_image"`
	Status   upload.Status `json:"status"`
	ImageURL string        `json:"image_url,omitempty"`
	Post     *post.Post    `json:"post,omitempty"`
	Error    *errorBody    `json:"error,omitempty"`
}

func newPendingView(p upload.Pending) pendingView {
	return pendingView{
		ID:       p.ID,
		AuthorID: p.AuthorID,
		Caption:  p.Caption,
		HasImage: p.Image != nil,
		Status:   p.Status,
		ImageURL: p.ImageURL,
		Post:     p.Post,
		Error:    newErrorBody(p.Err),
	}
}
