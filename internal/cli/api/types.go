package api

import "time"

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Session struct {
	Token        string       `json:"token"`
	Organization Organization `json:"organization"`
}

type Group struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AccessCode string    `json:"accessCode"`
	CreatedAt  time.Time `json:"createdAt"`
}

type BulkResult struct {
	Count  int     `json:"count"`
	Groups []Group `json:"groups"`
}

type Deletion struct {
	Group          Group `json:"group"`
	NoticesRemoved int64 `json:"noticesRemoved"`
}

type Suggestion struct {
	Code      string `json:"code"`
	Available bool   `json:"available"`
}

type Notice struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupID"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tag       string    `json:"tag"`
	ImageRef  string    `json:"imageRef,omitempty"`
	ImageURL  string    `json:"imageURL,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type GroupHandle struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AccessCode string `json:"accessCode"`
}

type Feed struct {
	Group   GroupHandle `json:"group"`
	Notices []Notice    `json:"notices"`
}
