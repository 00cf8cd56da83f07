package dto

type TrackVisitRequest struct {
	UserID      string `json:"userId" validate:"required,visitor_id"`
	IsReturning bool   `json:"isReturning"`
}

func (r TrackVisitRequest) Validate() error {
	return GetValidator().Struct(r)
}

type StatusResponse struct {
	Status    string `json:"status"`
	IsBlocked bool   `json:"isBlocked"`
}
