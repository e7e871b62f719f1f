// Package mocks provides gomock implementations of the repository and data store ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockAdminRepository(ctrl)
//	repo.EXPECT().FindAdminByEmail(gomock.Any(), "admin@escolafut.com").Return(acct, nil)
package mocks

// Credential lookups: FindAdminByEmail, FindManagerByEmail, FindGuardianByEmail, LinkedStudentIDs.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_repositories_mock.go github.com/escolafut/escola-api/internal/ports AdminRepository,GuardianRepository,ManagerRepository

// Generic table/predicate store: List, Insert, Update, Delete.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=data_store_mock.go github.com/escolafut/escola-api/internal/ports DataStore
