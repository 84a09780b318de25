package models

import "slices"

// ProfileType classifies a Renzo account.
type ProfileType string

const (
	ProfileDancer   ProfileType = "dancer"
	ProfileMusician ProfileType = "musician"
	ProfileDirector ProfileType = "director"
	ProfileFan      ProfileType = "fan"
)

// ProfileTypes lists the profile types offered at registration, in display order.
var ProfileTypes = []ProfileType{ProfileDancer, ProfileMusician, ProfileDirector, ProfileFan}

// Valid reports whether p is one of the known profile types.
func (p ProfileType) Valid() bool {
	return slices.Contains(ProfileTypes, p)
}

// Category classifies an uploaded performance video.
type Category string

const (
	CategorySolo        Category = "solo"
	CategoryGroup       Category = "group"
	CategoryDuet        Category = "duet"
	CategoryRehearsal   Category = "rehearsal"
	CategoryPerformance Category = "performance"
)

// DefaultCategory is preselected on the upload form.
const DefaultCategory = CategorySolo

// Categories lists the upload categories in display order.
var Categories = []Category{CategorySolo, CategoryGroup, CategoryDuet, CategoryRehearsal, CategoryPerformance}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// ConnectionStatus is the lifecycle state of a connection request.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// UserProfile is the client's cached copy of a backend account.
type UserProfile struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Username           string      `json:"username"`
	Email              string      `json:"email"`
	ProfileType        ProfileType `json:"profile_type"`
	Tags               []string    `json:"tags"`
	Bio                string      `json:"bio,omitempty"`
	AIGeneratedBio     string      `json:"ai_generated_bio,omitempty"`
	ProfileImage       string      `json:"profile_image,omitempty"`
	VerificationStatus string      `json:"verification_status,omitempty"`
	Followers          []string    `json:"followers,omitempty"`
	Following          []string    `json:"following,omitempty"`
	CreatedAt          Timestamp   `json:"created_at,omitzero"`
	UpdatedAt          Timestamp   `json:"updated_at,omitzero"`
}

// HasTag reports whether the profile carries tag.
func (u UserProfile) HasTag(tag string) bool {
	return slices.Contains(u.Tags, tag)
}

// ToggleTag adds tag to tags when absent and removes it otherwise. The input
// slice is not modified.
func ToggleTag(tags []string, tag string) []string {
	if i := slices.Index(tags, tag); i >= 0 {
		return slices.Delete(slices.Clone(tags), i, i+1)
	}
	return append(slices.Clone(tags), tag)
}

// VideoPost is a performance video as returned by the feed endpoint.
type VideoPost struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	UserName           string    `json:"user_name,omitempty"`
	UserUsername       string    `json:"user_username,omitempty"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Category           Category  `json:"category"`
	Genre              string    `json:"genre,omitempty"`
	VideoData          string    `json:"video_data"`
	Thumbnail          string    `json:"thumbnail,omitempty"`
	AIGeneratedTags    []string  `json:"ai_generated_tags"`
	AISkillRating      *float64  `json:"ai_skill_rating"`
	Likes              []string  `json:"likes"`
	Views              int       `json:"views"`
	VerificationStatus string    `json:"verification_status,omitempty"`
	CreatedAt          Timestamp `json:"created_at"`
}

// LikedBy reports whether userID is in the like set.
func (v VideoPost) LikedBy(userID string) bool {
	return slices.Contains(v.Likes, userID)
}

// ToggleLike returns a copy of v with userID removed from the like set if it
// was present and added otherwise. The receiver's slice is never mutated.
func (v VideoPost) ToggleLike(userID string) VideoPost {
	out := v
	if v.LikedBy(userID) {
		out.Likes = make([]string, 0, len(v.Likes))
		for _, id := range v.Likes {
			if id != userID {
				out.Likes = append(out.Likes, id)
			}
		}
		return out
	}
	out.Likes = append(slices.Clone(v.Likes), userID)
	return out
}

// Rating returns the AI skill rating, or 0 when the backend has not rated the video.
func (v VideoPost) Rating() float64 {
	if v.AISkillRating == nil {
		return 0
	}
	return *v.AISkillRating
}

// ConnectionRequest is a social link between two users.
type ConnectionRequest struct {
	ID         string           `json:"id"`
	FromUserID string           `json:"from_user_id"`
	ToUserID   string           `json:"to_user_id"`
	Message    string           `json:"message,omitempty"`
	Status     ConnectionStatus `json:"status"`
	CreatedAt  Timestamp        `json:"created_at"`
}

// SentBy reports whether userID initiated the request.
func (c ConnectionRequest) SentBy(userID string) bool {
	return c.FromUserID == userID
}
