package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	documentmodels "vitrina/internal/document/models"
	documentobjectstore "vitrina/internal/document/objectstore"
	documentservice "vitrina/internal/document/service"
	documentstore "vitrina/internal/document/store"
	"vitrina/internal/onboarding/models"
	"vitrina/internal/onboarding/store"
	providermodels "vitrina/internal/provider/models"
	providerservice "vitrina/internal/provider/service"
	providerstore "vitrina/internal/provider/store"
	registrymodels "vitrina/internal/registry/models"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/requestcontext"
)

// Valid test numbers: 111.444.777-35 (personal), 11.222.333/0001-81
// (business).
const (
	validPersonal = "111.444.777-35"
	validBusiness = "11.222.333/0001-81"
)

type fakeResolver struct {
	outcome registrymodels.Outcome
	err     error
	calls   int
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (registrymodels.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

func activeRecord() *registrymodels.Record {
	return &registrymodels.Record{
		IdentityNumber: "11222333000181",
		LegalName:      "Oficina Central Ltda",
		TradeName:      "Oficina Central",
		Status:         registrymodels.RegistrationActive,
	}
}

type ServiceSuite struct {
	suite.Suite

	ctx       context.Context
	now       time.Time
	subjectID id.SubjectID
	resolver  *fakeResolver
	providers *providerservice.Service
	documents *documentservice.Service
	svc       *Service
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.subjectID = id.NewSubjectID()
	s.resolver = &fakeResolver{outcome: registrymodels.Resolved(activeRecord())}
	s.providers = providerservice.New(providerstore.NewInMemory())
	s.documents = documentservice.New(documentstore.NewInMemory(), documentobjectstore.NewInMemory(), s.providers)
	s.svc = New(store.NewInMemory(), s.resolver, s.documents, s.providers)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) upload() *documentmodels.Upload {
	return &documentmodels.Upload{Content: []byte("fake-bytes"), ContentType: "image/jpeg"}
}

func (s *ServiceSuite) profileParams() ProfileParams {
	return ProfileParams{
		LegalName:    "Oficina Central Ltda",
		TradeName:    "Oficina Central",
		ContactEmail: "contato@oficina.example",
		ContactPhone: "+5511999990000",
	}
}

func (s *ServiceSuite) businessProfileParams() ProfileParams {
	params := s.profileParams()
	params.RepresentativeName = "Ana Pereira"
	params.RepresentativeIdentity = validPersonal
	return params
}

// completeBusinessDraft walks a business draft through steps one and two.
func (s *ServiceSuite) completeBusinessDraft() {
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.Require().NoError(err)
	_, err = s.svc.SetIdentity(s.ctx, s.subjectID, validBusiness)
	s.Require().NoError(err)
	_, err = s.svc.SetProfile(s.ctx, s.subjectID, s.businessProfileParams())
	s.Require().NoError(err)
}

// completeIndividualDraft walks an individual draft through steps one and
// two.
func (s *ServiceSuite) completeIndividualDraft() {
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindIndividual)
	s.Require().NoError(err)
	_, err = s.svc.SetIdentity(s.ctx, s.subjectID, validPersonal)
	s.Require().NoError(err)
	params := s.profileParams()
	params.LegalName = "Ana Pereira"
	_, err = s.svc.SetProfile(s.ctx, s.subjectID, params)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestStart_CreatesDraft() {
	draft, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.Require().NoError(err)
	s.Equal(s.subjectID, draft.SubjectID)
	s.Equal(providermodels.KindBusiness, draft.Kind)
}

func (s *ServiceSuite) TestStart_RefusedWhenProviderExists() {
	s.completeBusinessDraft()
	_, err := s.svc.Submit(s.ctx, s.subjectID)
	s.Require().NoError(err)

	_, err = s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestSetIdentity_IndividualValidatesLocallyOnly() {
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindIndividual)
	s.Require().NoError(err)

	result, err := s.svc.SetIdentity(s.ctx, s.subjectID, validPersonal)
	s.Require().NoError(err)
	s.Equal("11144477735", result.Draft.IdentityNumber)
	s.Zero(s.resolver.calls, "the individual path never touches the registry")
}

func (s *ServiceSuite) TestSetIdentity_ChecksumFailureBlocksBeforeResolution() {
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.Require().NoError(err)

	_, err = s.svc.SetIdentity(s.ctx, s.subjectID, "11.222.333/0001-82")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Zero(s.resolver.calls)
}

func (s *ServiceSuite) TestSetIdentity_ResolvedActiveFillsDraft() {
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.Require().NoError(err)

	result, err := s.svc.SetIdentity(s.ctx, s.subjectID, validBusiness)
	s.Require().NoError(err)
	s.Empty(result.Warning)
	s.Equal("11222333000181", result.Draft.IdentityNumber)
	s.Require().NotNil(result.Draft.Registry)
	s.Equal("Oficina Central Ltda", result.Draft.Registry.LegalName)
}

func (s *ServiceSuite) TestSetIdentity_InactiveRegistrationWarnsButProgresses() {
	record := activeRecord()
	record.Status = registrymodels.RegistrationInactive
	s.resolver.outcome = registrymodels.Resolved(record)
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.Require().NoError(err)

	result, err := s.svc.SetIdentity(s.ctx, s.subjectID, validBusiness)
	s.Require().NoError(err)
	s.NotEmpty(result.Warning)
	s.NotNil(result.Draft.Registry, "the raw record is retained for audit")
}

func (s *ServiceSuite) TestSetIdentity_NotFoundIsFatal() {
	s.resolver.outcome = registrymodels.NotFound()
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.Require().NoError(err)

	_, err = s.svc.SetIdentity(s.ctx, s.subjectID, validBusiness)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	draft, err := s.svc.Get(s.ctx, s.subjectID)
	s.Require().NoError(err)
	s.False(draft.IdentityComplete(), "the wizard must not progress past a not-found number")
}

func (s *ServiceSuite) TestSetIdentity_TransientErrorIsRetryable() {
	s.resolver.outcome = registrymodels.TransientError(errors.New("registry timeout"))
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.Require().NoError(err)

	_, err = s.svc.SetIdentity(s.ctx, s.subjectID, validBusiness)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	// An immediate retry with the same number succeeds once the registry
	// recovers.
	s.resolver.outcome = registrymodels.Resolved(activeRecord())
	result, err := s.svc.SetIdentity(s.ctx, s.subjectID, validBusiness)
	s.Require().NoError(err)
	s.True(result.Draft.IdentityComplete())
}

func (s *ServiceSuite) TestSetProfile_GatedOnIdentityStep() {
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.Require().NoError(err)

	_, err = s.svc.SetProfile(s.ctx, s.subjectID, s.businessProfileParams())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestSetProfile_RejectsInvalidRepresentativeIdentity() {
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindBusiness)
	s.Require().NoError(err)
	_, err = s.svc.SetIdentity(s.ctx, s.subjectID, validBusiness)
	s.Require().NoError(err)

	params := s.businessProfileParams()
	params.RepresentativeIdentity = "111.444.777-36"
	_, err = s.svc.SetProfile(s.ctx, s.subjectID, params)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestStageDocument_GatedOnProfileStep() {
	_, err := s.svc.Start(s.ctx, s.subjectID, providermodels.KindIndividual)
	s.Require().NoError(err)

	_, err = s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeIdentityCard, s.upload())
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestStageDocument_SameTypeSupersedes() {
	s.completeIndividualDraft()

	_, err := s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeIdentityCard, s.upload())
	s.Require().NoError(err)
	draft, err := s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeIdentityCard, s.upload())
	s.Require().NoError(err)

	s.Len(draft.Documents, 1, "restaging a type replaces the staged upload")
}

func (s *ServiceSuite) TestAcceptConsent_BusinessPathRejected() {
	s.completeBusinessDraft()

	_, err := s.svc.AcceptConsent(s.ctx, s.subjectID, models.ConsentTermsOfUse)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestSubmit_BusinessMaySkipDocuments() {
	s.completeBusinessDraft()

	provider, err := s.svc.Submit(s.ctx, s.subjectID)
	s.Require().NoError(err)
	s.Equal(providermodels.StatusPendingDocuments, provider.Status,
		"skipping documents trades faster submission for slower review")

	_, err = s.svc.Get(s.ctx, s.subjectID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "the draft is dropped on submission")
}

func (s *ServiceSuite) TestSubmit_BusinessWithAllDocumentsEntersReview() {
	s.completeBusinessDraft()
	_, err := s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeCompanyRegistration, s.upload())
	s.Require().NoError(err)
	_, err = s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeRepresentativeID, s.upload())
	s.Require().NoError(err)

	provider, err := s.svc.Submit(s.ctx, s.subjectID)
	s.Require().NoError(err)
	s.Equal(providermodels.StatusUnderReview, provider.Status)

	documents, err := s.documents.List(s.ctx, provider.ID)
	s.Require().NoError(err)
	s.Len(documents, 2, "staged uploads materialize as document records")
}

func (s *ServiceSuite) TestSubmit_IndividualMissingSelfieIsStructured() {
	s.completeIndividualDraft()
	_, err := s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeIdentityCard, s.upload())
	s.Require().NoError(err)
	for _, clause := range models.RequiredConsents() {
		_, err = s.svc.AcceptConsent(s.ctx, s.subjectID, clause)
		s.Require().NoError(err)
	}

	_, err = s.svc.Submit(s.ctx, s.subjectID)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	var incomplete *models.IncompleteError
	s.Require().ErrorAs(err, &incomplete)
	s.Require().Len(incomplete.Missing, 1)
	s.Equal("documents."+string(documentmodels.TypeSelfieWithDocument), incomplete.Missing[0].Field)
}

func (s *ServiceSuite) TestSubmit_IndividualMissingConsentIsStructured() {
	s.completeIndividualDraft()
	_, err := s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeIdentityCard, s.upload())
	s.Require().NoError(err)
	_, err = s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeSelfieWithDocument, s.upload())
	s.Require().NoError(err)
	_, err = s.svc.AcceptConsent(s.ctx, s.subjectID, models.ConsentTermsOfUse)
	s.Require().NoError(err)

	_, err = s.svc.Submit(s.ctx, s.subjectID)
	var incomplete *models.IncompleteError
	s.Require().ErrorAs(err, &incomplete)
	s.Len(incomplete.Missing, 2, "both unaccepted clauses are named")
}

func (s *ServiceSuite) TestSubmit_IndividualCompleteEntersReview() {
	s.completeIndividualDraft()
	_, err := s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeIdentityCard, s.upload())
	s.Require().NoError(err)
	_, err = s.svc.StageDocument(s.ctx, s.subjectID, documentmodels.TypeSelfieWithDocument, s.upload())
	s.Require().NoError(err)
	for _, clause := range models.RequiredConsents() {
		_, err = s.svc.AcceptConsent(s.ctx, s.subjectID, clause)
		s.Require().NoError(err)
	}

	provider, err := s.svc.Submit(s.ctx, s.subjectID)
	s.Require().NoError(err)
	s.Equal(providermodels.StatusUnderReview, provider.Status)
	s.Equal(providermodels.KindIndividual, provider.Kind)
	s.Nil(provider.Registry)
}
