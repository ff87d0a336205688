package model

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateSprintRequest struct {
	ClientName              string `json:"clientName" binding:"required"`
	ClientEmail             string `json:"clientEmail" binding:"required,email"`
	CompanyName             string `json:"companyName" binding:"required"`
	Tier                    string `json:"tier" binding:"required,oneof=discovery feasibility validation"`
	IsPartnershipEvaluation bool   `json:"isPartnershipEvaluation"`
	Notes                   string `json:"notes"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type IntakeRequest struct {
	BusinessModel   string   `json:"business_model"`
	ProductType     string   `json:"product_type"`
	Stage           string   `json:"stage"`
	Industry        string   `json:"industry"`
	Competitors     []string `json:"competitors"`
	Assumptions     []string `json:"assumptions"`
	Risks           []string `json:"risks"`
	PartnerName     string   `json:"partner_name"`
	PartnershipGoal string   `json:"partnership_goal"`
}

type CommentRequest struct {
	ModuleType string `json:"module_type"`
	Content    string `json:"content" binding:"required"`
}

// SprintModuleView merges a catalog descriptor with the persisted row
// for the module list endpoint.
type SprintModuleView struct {
	Key          string `json:"key"`
	Title        string `json:"title"`
	Section      string `json:"section"`
	RequiredTier string `json:"required_tier"`
	Status       string `json:"status"`
	HasData      bool   `json:"has_data"`
	HasAnalysis  bool   `json:"has_analysis"`
}

type GenerateResponse struct {
	Report string `json:"report"`
}

type DecisionResponse struct {
	Report          string `json:"report"`
	Recommendation  string `json:"recommendation"`
	Confidence      int    `json:"confidence"`
	ModulesAnalyzed int    `json:"modules_analyzed"`
}

type PaymentLinkResponse struct {
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

type PaymentConfirmRequest struct {
	Reference string `json:"reference" binding:"required"`
}
