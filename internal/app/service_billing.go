package app

import (
	"context"
	"sort"
	"strings"

	"atrium/api/internal/authz"
	"atrium/api/internal/store"
	"atrium/api/internal/util"
)

type OrderInput struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Plan     string `json:"plan"`
}

// CreatePaymentOrder opens an upgrade order. Payment capture happens out
// of band; MarkOrderPaid finalizes it.
func (s *Service) CreatePaymentOrder(ctx context.Context, sess Session, input OrderInput) (store.PaymentOrder, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.PaymentOrder{}, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return store.PaymentOrder{}, errForbidden()
	}
	if input.Amount <= 0 {
		return store.PaymentOrder{}, errValidation("amount must be positive")
	}
	plan := store.Plan(input.Plan)
	if plan != store.PlanPro {
		return store.PaymentOrder{}, errValidation("orders can only target the pro plan")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	order := store.PaymentOrder{
		ID:        util.NewID("ord"),
		CompanyID: sess.CompanyID,
		Amount:    input.Amount,
		Currency:  currency,
		Plan:      plan,
		Status:    store.OrderCreated,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertPaymentOrder(ctx, order); err != nil {
		return store.PaymentOrder{}, err
	}
	return order, nil
}

// MarkOrderPaid settles an order and switches the company to the ordered
// plan with a one-year subscription window.
func (s *Service) MarkOrderPaid(ctx context.Context, sess Session, orderID string, succeeded bool) (store.PaymentOrder, error) {
	user, company, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.PaymentOrder{}, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return store.PaymentOrder{}, errForbidden()
	}
	order, err := s.store.GetPaymentOrder(ctx, orderID)
	if err != nil {
		return store.PaymentOrder{}, err
	}
	if order.CompanyID != sess.CompanyID {
		return store.PaymentOrder{}, errNotFound()
	}
	if order.Status != store.OrderCreated {
		return store.PaymentOrder{}, errValidation("order already settled")
	}

	if !succeeded {
		order.Status = store.OrderFailed
		if err := s.store.UpdatePaymentOrder(ctx, order); err != nil {
			return store.PaymentOrder{}, err
		}
		return order, nil
	}

	now := s.now()
	order.Status = store.OrderPaid
	order.PaidAt = now
	if err := s.store.UpdatePaymentOrder(ctx, order); err != nil {
		return store.PaymentOrder{}, err
	}

	company.Plan = order.Plan
	company.SubscriptionStart = now
	company.SubscriptionEnd = now.AddDate(1, 0, 0)
	company.SubscriptionLive = true
	if err := s.store.UpdateCompany(ctx, company); err != nil {
		return store.PaymentOrder{}, err
	}
	s.logActivity(ctx, sess, store.KindUser, order.ID, "upgraded", string(order.Plan))
	return order, nil
}

func (s *Service) ListPaymentOrders(ctx context.Context, sess Session) ([]store.PaymentOrder, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return nil, errForbidden()
	}
	orders, err := s.store.ListPaymentOrders(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// Custom domains

type DomainInput struct {
	Domain string `json:"domain"`
}

func (s *Service) ListCustomDomains(ctx context.Context, sess Session) ([]store.CustomDomain, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return nil, errForbidden()
	}
	return s.store.ListCustomDomains(ctx, sess.CompanyID)
}

// CreateCustomDomain registers a domain in pending state. Custom domains
// are part of advanced branding, a Pro feature.
func (s *Service) CreateCustomDomain(ctx context.Context, sess Session, input DomainInput) (store.CustomDomain, error) {
	user, company, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.CustomDomain{}, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return store.CustomDomain{}, errForbidden()
	}
	if !authz.CanAccessFeature(company, authz.FeatureAdvancedBranding, s.now()) {
		return store.CustomDomain{}, errPlanRestricted(authz.FeatureAdvancedBranding)
	}
	name := strings.ToLower(strings.TrimSpace(input.Domain))
	if name == "" || !strings.Contains(name, ".") {
		return store.CustomDomain{}, errValidation("a fully qualified domain is required")
	}
	existing, err := s.store.ListCustomDomains(ctx, sess.CompanyID)
	if err != nil {
		return store.CustomDomain{}, err
	}
	for _, d := range existing {
		if d.Domain == name {
			return store.CustomDomain{}, errValidation("domain already registered")
		}
	}

	domain := store.CustomDomain{
		ID:        util.NewID("dom"),
		CompanyID: sess.CompanyID,
		Domain:    name,
		Status:    store.DomainPending,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertCustomDomain(ctx, domain); err != nil {
		return store.CustomDomain{}, err
	}
	return domain, nil
}

// VerifyCustomDomain marks a pending domain as verified. DNS proof is
// checked by the operator out of band.
func (s *Service) VerifyCustomDomain(ctx context.Context, sess Session, domainID string) (store.CustomDomain, error) {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return store.CustomDomain{}, err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return store.CustomDomain{}, errForbidden()
	}
	domain, err := s.store.GetCustomDomain(ctx, domainID)
	if err != nil {
		return store.CustomDomain{}, err
	}
	if domain.CompanyID != sess.CompanyID {
		return store.CustomDomain{}, errNotFound()
	}
	if domain.Status == store.DomainVerified {
		return domain, nil
	}
	domain.Status = store.DomainVerified
	domain.VerifiedAt = s.now()
	if err := s.store.UpdateCustomDomain(ctx, domain); err != nil {
		return store.CustomDomain{}, err
	}
	return domain, nil
}

func (s *Service) DeleteCustomDomain(ctx context.Context, sess Session, domainID string) error {
	user, _, _, err := s.viewer(ctx, sess)
	if err != nil {
		return err
	}
	if !authz.IsCompanyAdmin(user) && !authz.IsSuperAdmin(user) {
		return errForbidden()
	}
	domain, err := s.store.GetCustomDomain(ctx, domainID)
	if err != nil {
		return err
	}
	if domain.CompanyID != sess.CompanyID {
		return errNotFound()
	}
	return s.store.DeleteCustomDomain(ctx, domainID)
}
