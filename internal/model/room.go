package model

import "fmt"

// Room represents one room record in the catalog.
// Name is the de facto primary key: the whole pipeline cross-references
// LLM output back to catalog entries by name, so names must be unique.
type Room struct {
	ID           int    `json:"id" db:"id"`
	Name         string `json:"name" db:"name" binding:"required"`
	Price        int    `json:"price" db:"price"`
	Area         int    `json:"area" db:"area"`
	Features     string `json:"features" db:"features"`
	Style        string `json:"style" db:"style"`
	MaxOccupancy int    `json:"maxOccupancy" db:"max_occupancy"`
}

// SummaryLine renders the room as the single-line form shared by the
// retriever, the summary filter and the composer prompt.
func (r Room) SummaryLine() string {
	return fmt.Sprintf("名稱:%s 價格:%d 面積:%d 特色:%s 風格:%s 床數:%d",
		r.Name, r.Price, r.Area, r.Features, r.Style, r.MaxOccupancy)
}

// Info returns the subset of fields exposed in recommendation responses.
func (r Room) Info() RoomInfo {
	return RoomInfo{
		Price:        r.Price,
		Area:         r.Area,
		Features:     r.Features,
		Style:        r.Style,
		MaxOccupancy: r.MaxOccupancy,
	}
}

// RoomInfo is the per-room payload of a recommendation response.
type RoomInfo struct {
	Price        int    `json:"price"`
	Area         int    `json:"area"`
	Features     string `json:"features"`
	Style        string `json:"style"`
	MaxOccupancy int    `json:"maxOccupancy"`
}

// RecommendationResponse is the result of one chat query.
// Every key in Rooms must be a name present verbatim in the catalog.
type RecommendationResponse struct {
	Rooms      map[string]RoomInfo `json:"rooms"`
	Conclusion string              `json:"conclusion"`
}
