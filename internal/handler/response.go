package handler

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps one page of a collection.
type ListResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Count    int         `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewMessageResponse(message string) *Response {
	return &Response{
		Status:  "success",
		Message: message,
	}
}

func NewListResponse(data interface{}, count, page, pageSize int) *ListResponse {
	if page < 1 {
		page = 1
	}
	return &ListResponse{
		Status:   "success",
		Data:     data,
		Count:    count,
		Page:     page,
		PageSize: pageSize,
	}
}
