package service_test

//go:generate mockgen -source=../store/gateway.go -destination=../store/mocks/mocks.go -package=mocks Gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"arho/internal/plan/models"
	"arho/internal/plan/service"
	"arho/internal/plan/store"
	"arho/internal/plan/store/mocks"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
	"arho/pkg/platform/sentinel"
)

// =============================================================================
// Partial Failure Test Suite
// =============================================================================
// Justification for unit tests: gateway failures in the middle of a cascade
// cannot be provoked against a real store. The mock pins down which writes
// happen after a failure and which are skipped.

type FailureSuite struct {
	suite.Suite
	ctx     context.Context
	ctrl    *gomock.Controller
	gateway *mocks.MockGateway
	service *service.Service
	scope   models.Scope
}

func TestFailureSuite(t *testing.T) {
	suite.Run(t, new(FailureSuite))
}

func (s *FailureSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockGateway(s.ctrl)
	s.service = service.New(s.gateway, service.WithLogger(discardLogger()))
	s.scope = models.Scope{PlanID: "plan-1"}
}

func (s *FailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *FailureSuite) TestChildFailureKeepsSiblings() {
	g := models.NewRegulationGroup("Residential", "AK")
	first := models.NewRegulation("type-a")
	second := models.NewRegulation("type-b")
	g.Regulations = []*models.Regulation{first, second}

	gomock.InOrder(
		s.gateway.EXPECT().Upsert(gomock.Any(), store.KindRegulationGroup, gomock.Any(), id.ID("")).Return(id.ID("g-1"), nil),
		s.gateway.EXPECT().Upsert(gomock.Any(), store.KindRegulation, gomock.Any(), id.ID("")).Return(id.ID(""), errors.New("connection reset")),
		s.gateway.EXPECT().Upsert(gomock.Any(), store.KindRegulation, gomock.Any(), id.ID("")).Return(id.ID("r-2"), nil),
	)

	gid, err := s.service.SaveRegulationGroup(s.ctx, s.scope, g, "")

	s.Equal(id.ID("g-1"), gid, "the node itself was written")
	var report *service.SaveReport
	s.Require().ErrorAs(err, &report)
	s.Require().Len(report.Failures, 1)
	s.Equal(store.KindRegulation, report.Failures[0].Kind)
	s.Equal(service.OpInsert, report.Failures[0].Op)
	s.True(dErrors.HasCode(err, dErrors.CodeWriteFailed))
	s.Contains(err.Error(), "insert plan_regulation")

	s.True(first.IsNew())
	s.True(first.IsModified())
	s.Equal(id.ID("r-2"), second.ID)
	s.False(second.IsModified())
}

func (s *FailureSuite) TestNodeFailureSkipsChildren() {
	g := models.NewRegulationGroup("Residential", "AK")
	g.Regulations = []*models.Regulation{models.NewRegulation("type-a")}

	s.gateway.EXPECT().Upsert(gomock.Any(), store.KindRegulationGroup, gomock.Any(), id.ID("")).
		Return(id.ID(""), errors.New("disk full"))

	gid, err := s.service.SaveRegulationGroup(s.ctx, s.scope, g, "")

	s.Empty(gid)
	var opErr *service.OpError
	s.Require().ErrorAs(err, &opErr)
	s.Equal(store.KindRegulationGroup, opErr.Kind)
	var report *service.SaveReport
	s.False(errors.As(err, &report))
	s.True(g.Regulations[0].IsNew())
}

func (s *FailureSuite) TestLinkFailureIsReported() {
	p := models.NewProposition("Keep the trees")
	p.ThemeIDs = []id.ID{"theme-a"}

	gomock.InOrder(
		s.gateway.EXPECT().Upsert(gomock.Any(), store.KindProposition, gomock.Any(), id.ID("")).Return(id.ID("p-1"), nil),
		s.gateway.EXPECT().Query(gomock.Any(), store.KindThemeAssociation, gomock.Any()).Return(nil, nil),
		s.gateway.EXPECT().Upsert(gomock.Any(), store.KindThemeAssociation, gomock.Any(), id.ID("")).
			Return(id.ID(""), sentinel.ErrUnavailable),
	)

	pid, err := s.service.SaveProposition(s.ctx, s.scope, p, "g-1")

	s.Equal(id.ID("p-1"), pid)
	var report *service.SaveReport
	s.Require().ErrorAs(err, &report)
	s.Equal(service.OpLink, report.Failures[0].Op)
	s.ErrorIs(err, sentinel.ErrUnavailable)
}

func (s *FailureSuite) TestPruneFailureKeepsParentRow() {
	g := models.NewRegulationGroup("Residential", "AK")
	g.PlanID = "plan-1"
	g.MarkSaved("g-1")

	regRows := []store.Record{{store.IDColumn: "r-old", "plan_regulation_group_id": "g-1"}}
	gomock.InOrder(
		s.gateway.EXPECT().Query(gomock.Any(), store.KindRegulation, store.Where("plan_regulation_group_id", "g-1")).Return(regRows, nil),
		s.gateway.EXPECT().Query(gomock.Any(), store.KindAdditionalInformation, gomock.Any()).Return(nil, errors.New("timeout")),
		s.gateway.EXPECT().Query(gomock.Any(), store.KindThemeAssociation, gomock.Any()).Return(nil, nil),
		s.gateway.EXPECT().Query(gomock.Any(), store.KindVerbalTypeAssociation, gomock.Any()).Return(nil, nil),
		s.gateway.EXPECT().Query(gomock.Any(), store.KindProposition, gomock.Any()).Return(nil, nil),
	)

	_, err := s.service.SaveRegulationGroup(s.ctx, s.scope, g, "")

	var report *service.SaveReport
	s.Require().ErrorAs(err, &report)
	s.Require().Len(report.Failures, 1)
	s.Equal(service.OpQuery, report.Failures[0].Op)
	s.Equal(store.KindAdditionalInformation, report.Failures[0].Kind)
}
