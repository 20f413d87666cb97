package feed

import "github.com/oos/auto-finder/internal/domain"

type feedResponse struct {
	PageInfo PageInfo            `json:"pageInfo"`
	Listings []domain.RawListing `json:"listings"`
}

type PageInfo struct {
	Page       int `json:"page"`
	NumPages   int `json:"numPages"`
	PageSize   int `json:"pageSize"`
	NumEntries int `json:"numEntries"`
}
