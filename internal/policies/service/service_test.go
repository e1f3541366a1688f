package service

import (
	"testing"
	"time"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/internal/crm/store"
	"finroots_crm_backend/internal/policies/transport"
	"finroots_crm_backend/internal/visibility"

	"github.com/google/uuid"
)

var testNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func day(offset int) time.Time {
	return testNow.AddDate(0, 0, offset)
}

func seedStore(t *testing.T) (*store.Store, uuid.UUID) {
	t.Helper()

	st := store.New()
	branchID := uuid.New()
	advisorID := uuid.New()

	st.PutBranch(domain.Branch{ID: branchID, Name: "Mumbai Central"})
	st.PutUser(domain.User{ID: advisorID, Name: "Priya Nair", Role: domain.RoleAdvisor, BranchID: &branchID})

	spocID := uuid.New()
	st.PutMember(domain.Member{
		ID:         spocID,
		Name:       "Ravi Sharma",
		AssignedTo: []uuid.UUID{advisorID},
		IsSPOC:     true,
		Policies: []domain.Policy{
			{
				ID:          uuid.New(),
				PolicyType:  "Health",
				Premium:     12000,
				Coverage:    500000,
				RenewalDate: day(10),
				HolderType:  domain.HolderIndividual,
				Commission:  &domain.Commission{Amount: 600, Status: "Paid"},
			},
			{
				ID:          uuid.New(),
				PolicyType:  "Term",
				Premium:     30000,
				Coverage:    2000000,
				RenewalDate: day(90),
				HolderType:  domain.HolderFamily,
			},
		},
	})

	st.PutMember(domain.Member{
		ID:         uuid.New(),
		Name:       "Anita Sharma",
		AssignedTo: []uuid.UUID{advisorID},
		SPOCID:     &spocID,
		Policies: []domain.Policy{
			{
				ID:          uuid.New(),
				PolicyType:  "Term",
				Premium:     30000,
				Coverage:    2000000,
				RenewalDate: day(90),
				HolderType:  domain.HolderFamily,
			},
			{
				ID:          uuid.New(),
				PolicyType:  "Motor",
				Premium:     8000,
				Coverage:    300000,
				RenewalDate: day(-3),
				HolderType:  domain.HolderIndividual,
				Commission:  &domain.Commission{Amount: 400, Status: "Pending"},
			},
		},
	})

	return st, advisorID
}

func TestListClassifiesAndExcludesFamilyDuplicates(t *testing.T) {
	st, advisorID := seedStore(t)
	svc := New(st, st)

	res := svc.List(visibility.Advisor(advisorID), testNow, ListParams{PageSize: 10})

	// SPOC contributes Health + family Term; the dependent contributes only
	// the individual Motor policy.
	if res.TotalCount != 3 {
		t.Fatalf("TotalCount = %d, want 3", res.TotalCount)
	}

	byType := map[string]transport.Row{}
	for _, r := range res.Items {
		byType[r.PolicyType] = r
	}
	if _, dup := byType["Term"]; !dup {
		t.Fatalf("family policy missing from SPOC view")
	}

	health := byType["Health"]
	if health.DaysLeft != 10 || health.RenewalStatus != domain.RenewalPending {
		t.Fatalf("Health row = daysLeft %d status %s, want 10 Pending", health.DaysLeft, health.RenewalStatus)
	}
	motor := byType["Motor"]
	if motor.DaysLeft != -3 || motor.RenewalStatus != domain.RenewalOverdue {
		t.Fatalf("Motor row = daysLeft %d status %s, want -3 Overdue", motor.DaysLeft, motor.RenewalStatus)
	}
	term := byType["Term"]
	if term.RenewalStatus != domain.RenewalActive {
		t.Fatalf("Term status = %s, want Active", term.RenewalStatus)
	}

	if health.AdvisorName != "Priya Nair" || health.BranchName != "Mumbai Central" {
		t.Fatalf("attribution = %q / %q", health.AdvisorName, health.BranchName)
	}
}

func TestDaysLeftTruncatesToDays(t *testing.T) {
	tests := []struct {
		name    string
		renewal time.Time
		want    int
	}{
		{"later today counts as zero", testNow.Add(5 * time.Hour), 0},
		{"earlier today counts as zero", testNow.Add(-5 * time.Hour), 0},
		{"tomorrow early morning", day(1).Add(-9 * time.Hour), 1},
		{"yesterday late evening", day(-1).Add(13 * time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysLeft(tt.renewal, testNow); got != tt.want {
				t.Fatalf("DaysLeft = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		daysLeft int
		want     domain.RenewalStatus
	}{
		{-1, domain.RenewalOverdue},
		{0, domain.RenewalPending},
		{30, domain.RenewalPending},
		{31, domain.RenewalActive},
	}
	for _, tt := range tests {
		if got := Classify(tt.daysLeft); got != tt.want {
			t.Fatalf("Classify(%d) = %s, want %s", tt.daysLeft, got, tt.want)
		}
	}
}

func TestListFilters(t *testing.T) {
	st, advisorID := seedStore(t)
	svc := New(st, st)
	scope := visibility.Advisor(advisorID)

	min := 10000.0
	res := svc.List(scope, testNow, ListParams{
		Filters:  transport.Filters{PremiumMin: &min},
		PageSize: 10,
	})
	if res.TotalCount != 2 {
		t.Fatalf("premium filter TotalCount = %d, want 2", res.TotalCount)
	}

	// Renewal upper bound is inclusive of the whole end day.
	end := day(10)
	res = svc.List(scope, testNow, ListParams{
		Filters:  transport.Filters{RenewalEnd: &end},
		PageSize: 10,
	})
	if res.TotalCount != 2 {
		t.Fatalf("renewal end filter TotalCount = %d, want 2 (Motor and Health)", res.TotalCount)
	}

	res = svc.List(scope, testNow, ListParams{
		Filters:  transport.Filters{CommissionStatus: "Paid"},
		PageSize: 10,
	})
	if res.TotalCount != 1 || res.Items[0].PolicyType != "Health" {
		t.Fatalf("commission filter = %d rows, want the Health row", res.TotalCount)
	}

	res = svc.List(scope, testNow, ListParams{
		Filters:  transport.Filters{CommissionStatus: transport.CommissionStatusAll},
		PageSize: 10,
	})
	if res.TotalCount != 3 {
		t.Fatalf("commission All TotalCount = %d, want 3", res.TotalCount)
	}

	res = svc.List(scope, testNow, ListParams{
		Filters:  transport.Filters{Advisors: []uuid.UUID{uuid.New()}},
		PageSize: 10,
	})
	if res.TotalCount != 0 {
		t.Fatalf("unknown advisor filter TotalCount = %d, want 0", res.TotalCount)
	}
}

func TestListSortStableAndRenumbered(t *testing.T) {
	st, advisorID := seedStore(t)
	svc := New(st, st)

	res := svc.List(visibility.Advisor(advisorID), testNow, ListParams{
		Sort:     transport.SortPremium,
		PageSize: 10,
	})

	premiums := make([]float64, 0, len(res.Items))
	for i, r := range res.Items {
		premiums = append(premiums, r.Premium)
		if r.Seq != i+1 {
			t.Fatalf("Seq[%d] = %d, want %d", i, r.Seq, i+1)
		}
	}
	for i := 1; i < len(premiums); i++ {
		if premiums[i] < premiums[i-1] {
			t.Fatalf("premiums not ascending: %v", premiums)
		}
	}

	desc := svc.List(visibility.Advisor(advisorID), testNow, ListParams{
		Sort:     transport.SortPremium,
		Desc:     true,
		PageSize: 10,
	})
	if desc.Items[0].Premium < desc.Items[len(desc.Items)-1].Premium {
		t.Fatalf("descending sort not applied")
	}
}

func TestListPaginationReconstructsFullSet(t *testing.T) {
	st := store.New()
	advisorID := uuid.New()
	st.PutUser(domain.User{ID: advisorID, Name: "Advisor", Role: domain.RoleAdvisor})

	for i := 0; i < 25; i++ {
		st.PutMember(domain.Member{
			ID:         uuid.New(),
			Name:       "Member",
			AssignedTo: []uuid.UUID{advisorID},
			Policies: []domain.Policy{{
				ID:          uuid.New(),
				PolicyType:  "Health",
				Premium:     float64(1000 + i),
				RenewalDate: day(40),
				HolderType:  domain.HolderIndividual,
			}},
		})
	}

	svc := New(st, st)
	scope := visibility.Advisor(advisorID)

	seen := map[float64]bool{}
	for page := 1; ; page++ {
		res := svc.List(scope, testNow, ListParams{Page: page, PageSize: 10})
		if res.TotalCount != 25 {
			t.Fatalf("page %d TotalCount = %d, want 25", page, res.TotalCount)
		}
		if len(res.Items) == 0 {
			break
		}
		for _, r := range res.Items {
			if seen[r.Premium] {
				t.Fatalf("premium %v appeared on two pages", r.Premium)
			}
			seen[r.Premium] = true
		}
		if len(res.Items) < 10 {
			break
		}
	}
	if len(seen) != 25 {
		t.Fatalf("reconstructed %d rows, want 25", len(seen))
	}
}

func TestRecordPayment(t *testing.T) {
	st, advisorID := seedStore(t)
	svc := New(st, st)
	scope := visibility.Advisor(advisorID)

	var memberID, policyID uuid.UUID
	for _, m := range st.ListMembers() {
		if m.Name == "Ravi Sharma" {
			memberID = m.ID
			policyID = m.Policies[0].ID
		}
	}

	payment := domain.PaymentDetails{
		TransactionID: "TXN-4711",
		Amount:        12000,
		Date:          day(-1),
		Status:        "Success",
	}
	if err := svc.RecordPayment(scope, memberID, policyID, payment); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	m, err := st.GetMember(memberID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if m.Policies[0].Payment == nil || m.Policies[0].Payment.TransactionID != "TXN-4711" {
		t.Fatalf("payment not recorded: %+v", m.Policies[0].Payment)
	}

	if err := svc.RecordPayment(scope, memberID, uuid.New(), payment); err == nil {
		t.Fatalf("unknown policy accepted")
	}
	if err := svc.RecordPayment(visibility.Advisor(uuid.New()), memberID, policyID, payment); err == nil {
		t.Fatalf("foreign advisor recorded a payment")
	}
}

func TestListSummaryCountsFilteredSet(t *testing.T) {
	st, advisorID := seedStore(t)
	svc := New(st, st)

	res := svc.List(visibility.Advisor(advisorID), testNow, ListParams{PageSize: 10})
	s := res.Summary
	if s.Total != 3 || s.Overdue != 1 || s.DueIn30 != 1 || s.DueIn7 != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if s.TotalPremium != 12000+30000+8000 {
		t.Fatalf("TotalPremium = %v", s.TotalPremium)
	}

	if res.PremiumBounds[0] != 8000 || res.PremiumBounds[1] != 30000 {
		t.Fatalf("PremiumBounds = %v", res.PremiumBounds)
	}
}
