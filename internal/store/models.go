package store

import "time"

// Collection names, one per persisted entity kind. Each maps to a single
// serialized array in the key-value store.
const (
	ColCompanies     = "companies"
	ColUsers         = "users"
	ColDepartments   = "departments"
	ColSpaces        = "spaces"
	ColSpaceMembers  = "space-members"
	ColPages         = "pages"
	ColPageComments  = "page-comments"
	ColPageWidgets   = "page-widgets"
	ColPageViews     = "page-views"
	ColDocuments     = "documents"
	ColAnnouncements = "announcements"
	ColEvents        = "events"
	ColKnowledgeCats = "knowledge-categories"
	ColKnowledgeArts = "knowledge-articles"
	ColNotifications = "notifications"
	ColActivityLogs  = "activity-logs"
	ColFavorites     = "favorites"
	ColAcks          = "read-acknowledgements"
	ColTemplates     = "page-templates"
	ColNavLinks      = "nav-quick-links"
	ColAIQueries     = "ai-queries"
	ColPaymentOrders = "payment-orders"
	ColCustomDomains = "custom-domains"
)

// Role is a user's company-wide privilege level, totally ordered.
type Role string

const (
	RoleMember       Role = "member"
	RoleSpaceManager Role = "space_manager"
	RoleCompanyAdmin Role = "company_admin"
	RoleSuperAdmin   Role = "super_admin"
)

var roleRank = map[Role]int{
	RoleMember:       1,
	RoleSpaceManager: 2,
	RoleCompanyAdmin: 3,
	RoleSuperAdmin:   4,
}

// AtLeast reports whether r is at or above other in the privilege order.
// Unknown roles rank below Member.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// SpaceRole is a user's privilege within one space, independent of the
// global Role.
type SpaceRole string

const (
	SpaceRoleNone    SpaceRole = ""
	SpaceRoleMember  SpaceRole = "member"
	SpaceRoleManager SpaceRole = "space_manager"
)

// Plan is a company's subscription tier.
type Plan string

const (
	PlanBasic Plan = "basic"
	PlanPro   Plan = "pro"
)

// PageStatus is a page's publication lifecycle state.
type PageStatus string

const (
	PageDraft     PageStatus = "draft"
	PagePublished PageStatus = "published"
)

// Audience scopes an announcement.
type Audience string

const (
	AudienceCompanyWide Audience = "company_wide"
	AudienceSpace       Audience = "space"
)

// EntityKind tags the target of a polymorphic entity reference
// (notifications, activity logs, favorites, acknowledgements).
type EntityKind string

const (
	KindSpace        EntityKind = "space"
	KindPage         EntityKind = "page"
	KindDocument     EntityKind = "document"
	KindAnnouncement EntityKind = "announcement"
	KindEvent        EntityKind = "event"
	KindArticle      EntityKind = "knowledge_article"
	KindUser         EntityKind = "user"
)

// Valid reports whether k names a known entity kind.
func (k EntityKind) Valid() bool {
	switch k {
	case KindSpace, KindPage, KindDocument, KindAnnouncement, KindEvent, KindArticle, KindUser:
		return true
	default:
		return false
	}
}

// AIScope restricts an AI question to part of the portal.
type AIScope string

const (
	ScopeGlobal        AIScope = "global"
	ScopeSpace         AIScope = "space"
	ScopePage          AIScope = "page"
	ScopeDocument      AIScope = "document"
	ScopeKnowledgeBase AIScope = "knowledge_base"
)

// AIStatus is the answer lifecycle of an AI query.
type AIStatus string

const (
	AIPending  AIStatus = "pending"
	AIAnswered AIStatus = "answered"
	AIError    AIStatus = "error"
)

// OrderStatus is the lifecycle of a payment order.
type OrderStatus string

const (
	OrderCreated OrderStatus = "created"
	OrderPaid    OrderStatus = "paid"
	OrderFailed  OrderStatus = "failed"
)

// DomainStatus is the verification state of a custom domain.
type DomainStatus string

const (
	DomainPending  DomainStatus = "pending"
	DomainVerified DomainStatus = "verified"
	DomainFailed   DomainStatus = "failed"
)

// Company is the tenant boundary. Every other entity belongs to exactly one
// company via CompanyID.
type Company struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	LogoURL           string    `json:"logoUrl"`
	PrimaryColor      string    `json:"primaryColor"`
	Plan              Plan      `json:"plan"`
	SubscriptionStart time.Time `json:"subscriptionStart"`
	SubscriptionEnd   time.Time `json:"subscriptionEnd"`
	SubscriptionLive  bool      `json:"subscriptionLive"`
	MaxUsers          int       `json:"maxUsers"`
	InviteCode        string    `json:"inviteCode"`
	AIAPIKey          string    `json:"aiApiKey"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
}

// User belongs to one company. Email is unique across all users regardless
// of company.
type User struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"companyId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	DisplayName  string    `json:"displayName"`
	Role         Role      `json:"role"`
	DepartmentID string    `json:"departmentId"`
	AvatarURL    string    `json:"avatarUrl"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Department struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Space is a content container scoped to a company, with its own
// membership list.
type Space struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"companyId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CoverURL    string    `json:"coverUrl"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SpaceMember joins a user to a space with a role-in-space. An inactive row
// grants nothing.
type SpaceMember struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	SpaceID   string    `json:"spaceId"`
	UserID    string    `json:"userId"`
	Role      SpaceRole `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type Page struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"companyId"`
	SpaceID    string     `json:"spaceId"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Status     PageStatus `json:"status"`
	TemplateID string     `json:"templateId"`
	CreatedBy  string     `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type PageComment struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	PageID    string    `json:"pageId"`
	UserID    string    `json:"userId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type PageWidget struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	PageID    string    `json:"pageId"`
	Kind      string    `json:"kind"`
	Config    string    `json:"config"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
}

type PageView struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	PageID    string    `json:"pageId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Document is file metadata; the bytes live in object storage under
// StorageKey.
type Document struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"companyId"`
	SpaceID     string    `json:"spaceId"`
	Title       string    `json:"title"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	StorageKey  string    `json:"storageKey"`
	UploadedBy  string    `json:"uploadedBy"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Announcement with an empty SpaceID and AudienceCompanyWide is visible to
// the whole company.
type Announcement struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	SpaceID   string    `json:"spaceId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Audience  Audience  `json:"audience"`
	IsPinned  bool      `json:"isPinned"`
	IsActive  bool      `json:"isActive"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type Event struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"companyId"`
	SpaceID     string    `json:"spaceId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	IsActive    bool      `json:"isActive"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type KnowledgeCategory struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sortOrder"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// KnowledgeArticle may reference a space or page for context; the reference
// is not integrity-checked and may dangle.
type KnowledgeArticle struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"companyId"`
	CategoryID string    `json:"categoryId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	SpaceID    string    `json:"spaceId"`
	PageID     string    `json:"pageId"`
	IsActive   bool      `json:"isActive"`
	IsFeatured bool      `json:"isFeatured"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Notification struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"companyId"`
	UserID     string     `json:"userId"`
	EntityKind EntityKind `json:"entityKind"`
	EntityID   string     `json:"entityId"`
	Message    string     `json:"message"`
	IsRead     bool       `json:"isRead"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type ActivityLog struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"companyId"`
	UserID     string     `json:"userId"`
	EntityKind EntityKind `json:"entityKind"`
	EntityID   string     `json:"entityId"`
	Action     string     `json:"action"`
	Detail     string     `json:"detail"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Favorite struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"companyId"`
	UserID     string     `json:"userId"`
	EntityKind EntityKind `json:"entityKind"`
	EntityID   string     `json:"entityId"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type ReadAcknowledgement struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"companyId"`
	UserID     string     `json:"userId"`
	EntityKind EntityKind `json:"entityKind"`
	EntityID   string     `json:"entityId"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type PageTemplate struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type NavLink struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Label     string    `json:"label"`
	URL       string    `json:"url"`
	SortOrder int       `json:"sortOrder"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type AIQuery struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"companyId"`
	UserID     string    `json:"userId"`
	Question   string    `json:"question"`
	Scope      AIScope   `json:"scope"`
	ScopeID    string    `json:"scopeId"`
	AnswerText string    `json:"answerText"`
	Status     AIStatus  `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	AnsweredAt time.Time `json:"answeredAt"`
}

type PaymentOrder struct {
	ID        string      `json:"id"`
	CompanyID string      `json:"companyId"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Plan      Plan        `json:"plan"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	PaidAt    time.Time   `json:"paidAt"`
}

type CustomDomain struct {
	ID         string       `json:"id"`
	CompanyID  string       `json:"companyId"`
	Domain     string       `json:"domain"`
	Status     DomainStatus `json:"status"`
	VerifiedAt time.Time    `json:"verifiedAt"`
	CreatedAt  time.Time    `json:"createdAt"`
}

func (c Company) RowID() string             { return c.ID }
func (u User) RowID() string                { return u.ID }
func (d Department) RowID() string          { return d.ID }
func (s Space) RowID() string               { return s.ID }
func (m SpaceMember) RowID() string         { return m.ID }
func (p Page) RowID() string                { return p.ID }
func (c PageComment) RowID() string         { return c.ID }
func (w PageWidget) RowID() string          { return w.ID }
func (v PageView) RowID() string            { return v.ID }
func (d Document) RowID() string            { return d.ID }
func (a Announcement) RowID() string        { return a.ID }
func (e Event) RowID() string               { return e.ID }
func (c KnowledgeCategory) RowID() string   { return c.ID }
func (a KnowledgeArticle) RowID() string    { return a.ID }
func (n Notification) RowID() string        { return n.ID }
func (l ActivityLog) RowID() string         { return l.ID }
func (f Favorite) RowID() string            { return f.ID }
func (a ReadAcknowledgement) RowID() string { return a.ID }
func (t PageTemplate) RowID() string        { return t.ID }
func (n NavLink) RowID() string             { return n.ID }
func (q AIQuery) RowID() string             { return q.ID }
func (o PaymentOrder) RowID() string        { return o.ID }
func (d CustomDomain) RowID() string        { return d.ID }
