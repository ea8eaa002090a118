package booking

type CreateBookingRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required,len=3"`
	Description string  `json:"description"`
	CountryCode string  `json:"country_code" binding:"required,min=2,max=3"`
}
