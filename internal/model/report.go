package model

// BasisType names the grounds on which a member's presence is verified.
type BasisType string

const (
	// BasisExpert marks a member registered in the expert tag registry.
	BasisExpert BasisType = "expert"
	// BasisTokenPayment marks a member covered by personal token payments.
	BasisTokenPayment BasisType = "token_payment"
)

// Violation records a member without a valid basis for membership, with the
// reasons in check order.
type Violation struct {
	Username string   `json:"username"`
	Stellar  Account  `json:"stellar,omitempty"`
	Reasons  []string `json:"reason"`
}

// Verification records a member with a valid basis for membership together
// with the evidence supporting it.
type Verification struct {
	Username string  `json:"username"`
	Stellar  Account `json:"stellar"`
	Basis    Basis   `json:"basis"`
}

// Basis is the verification basis. Expert verifications carry empty details;
// token payment verifications carry the evidence of the qualifying payments.
type Basis struct {
	Type    BasisType    `json:"type"`
	Details BasisDetails `json:"details"`
}

// BasisDetails carries the payment evidence of a token_payment basis.
// PaymentFrom is set only when the paying account differs from the member's
// own, supporting third-party sponsorship.
type BasisDetails struct {
	TransactionHash string  `json:"transactionHash,omitempty"`
	Date            string  `json:"date,omitempty"`
	TokensAmount    string  `json:"tokensAmount,omitempty"`
	MonthsCovered   *int    `json:"monthsCovered,omitempty"`
	PaymentFrom     Account `json:"paymentFrom,omitempty"`
}

// Report is the outcome of a full compliance run. Entries keep the order of
// the input member list.
type Report struct {
	Violations    []Violation    `json:"violations"`
	Verifications []Verification `json:"verifications"`
}

// Success reports whether every member holds a valid basis for membership.
func (r *Report) Success() bool {
	return len(r.Violations) == 0
}
