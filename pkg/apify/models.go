package apify

import (
	"time"

	"icpscout/pkg/models"
)

// profileItem is a profile row from the profile actor's dataset
type profileItem struct {
	Username             string `json:"username"`
	FullName             string `json:"fullName"`
	Biography            string `json:"biography"`
	FollowersCount       int    `json:"followersCount"`
	FollowsCount         int    `json:"followsCount"`
	PostsCount           int    `json:"postsCount"`
	Private              bool   `json:"private"`
	IsBusinessAccount    bool   `json:"isBusinessAccount"`
	BusinessCategoryName string `json:"businessCategoryName"`
}

func (p *profileItem) toModel() *models.Profile {
	return &models.Profile{
		Username:          p.Username,
		FullName:          p.FullName,
		Biography:         p.Biography,
		FollowersCount:    p.FollowersCount,
		FollowingCount:    p.FollowsCount,
		PostsCount:        p.PostsCount,
		IsPrivate:         p.Private,
		IsBusinessAccount: p.IsBusinessAccount,
		BusinessCategory:  p.BusinessCategoryName,
	}
}

// postItem is a post row from the post actor's dataset
type postItem struct {
	ID            string    `json:"id"`
	ShortCode     string    `json:"shortCode"`
	Caption       string    `json:"caption"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	Timestamp     time.Time `json:"timestamp"`
}

func (p *postItem) toModel() models.Post {
	return models.Post{
		ID:            p.ID,
		Shortcode:     p.ShortCode,
		Caption:       p.Caption,
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		TakenAt:       p.Timestamp,
	}
}

// commentItem is a comment row from the comment actor's dataset
type commentItem struct {
	ID            string `json:"id"`
	PostID        string `json:"postId"`
	OwnerUsername string `json:"ownerUsername"`
	Text          string `json:"text"`
	LikesCount    int    `json:"likesCount"`
}

func (c *commentItem) toModel(postID string) models.Comment {
	id := c.PostID
	if id == "" {
		id = postID
	}
	return models.Comment{
		ID:            c.ID,
		PostID:        id,
		OwnerUsername: c.OwnerUsername,
		Text:          c.Text,
		LikesCount:    c.LikesCount,
	}
}

// followerItem is a follower row from the follower actor's dataset
type followerItem struct {
	Username string `json:"username"`
}

// apiError is the error envelope returned by the Apify API
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
