package payment

type PayRequest struct {
	CardNumber string `json:"card_number" binding:"required,min=12,max=19,numeric"`
	CardHolder string `json:"card_holder" binding:"required"`
	CardExpiry string `json:"card_expiry" binding:"required"`
	CVV        string `json:"cvv" binding:"required,min=3,max=4,numeric"`
}
