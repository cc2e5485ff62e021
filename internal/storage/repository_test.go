package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"khata/internal/core"
)

type RepositorySuite struct {
	suite.Suite
	repo *Repository
	ctx  context.Context
}

func (s *RepositorySuite) SetupTest() {
	repo, err := NewRepository(":memory:")
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	s.repo.Close()
}

func (s *RepositorySuite) insertOn(userID int64, cents int64, category core.Category, date string) core.Expense {
	at, err := time.Parse(core.DateLayout, date)
	s.Require().NoError(err)
	e, err := s.repo.Insert(s.ctx, userID, core.Money{Cents: cents}, "shop", core.ModeCash, category, at)
	s.Require().NoError(err)
	return e
}

func (s *RepositorySuite) TestInsertAndList() {
	e, err := s.repo.Insert(s.ctx, 1, core.Money{Cents: 1050}, "Corner Cafe", core.ModeCard, core.CategoryFood, time.Time{})
	s.Require().NoError(err)
	s.NotZero(e.ID)
	s.Equal(int64(1050), e.Amount.Cents)
	s.NotEmpty(e.Date)
	s.NotEmpty(e.Time)

	list, err := s.repo.ListAll(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(e, list[0])
}

func (s *RepositorySuite) TestListOrderedByInsertion() {
	first := s.insertOn(1, 500, core.CategoryFood, "2024-03-02")
	second := s.insertOn(1, 300, core.CategoryTransport, "2024-03-01")

	list, err := s.repo.ListAll(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal(second.ID, list[1].ID)
}

func (s *RepositorySuite) TestInsertRejectsInvalid() {
	_, err := s.repo.Insert(s.ctx, 1, core.Money{Cents: 0}, "shop", core.ModeCash, core.CategoryFood, time.Time{})
	s.ErrorIs(err, core.ErrInvalidAmount)

	_, err = s.repo.Insert(s.ctx, 1, core.Money{Cents: 100}, "   ", core.ModeCash, core.CategoryFood, time.Time{})
	s.ErrorIs(err, core.ErrEmptyRecipient)

	_, err = s.repo.Insert(s.ctx, 1, core.Money{Cents: 100}, "shop", "Cheque", core.CategoryFood, time.Time{})
	s.ErrorIs(err, core.ErrInvalidPaymentMode)

	_, err = s.repo.Insert(s.ctx, 1, core.Money{Cents: 100}, "shop", core.ModeCash, "Rent", time.Time{})
	s.ErrorIs(err, core.ErrInvalidCategory)

	list, err := s.repo.ListAll(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *RepositorySuite) TestDeleteReturnsRefund() {
	e := s.insertOn(1, 750, core.CategoryShopping, "2024-03-05")

	refund, err := s.repo.DeleteByID(s.ctx, 1, e.ID)
	s.Require().NoError(err)
	s.Equal(int64(750), refund.Cents)

	list, err := s.repo.ListAll(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *RepositorySuite) TestDeleteMissing() {
	_, err := s.repo.DeleteByID(s.ctx, 1, 42)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestListAllScopedToUser() {
	s.insertOn(1, 500, core.CategoryFood, "2024-03-01")
	s.insertOn(1, 300, core.CategoryTransport, "2024-03-02")

	other, err := s.repo.ListAll(s.ctx, 2)
	s.Require().NoError(err)
	s.Empty(other)

	mine, err := s.repo.ListAll(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(mine, 2)
}

func (s *RepositorySuite) TestDeleteOtherUsersExpense() {
	e := s.insertOn(1, 750, core.CategoryShopping, "2024-03-05")

	_, err := s.repo.DeleteByID(s.ctx, 2, e.ID)
	s.ErrorIs(err, core.ErrNotFound)

	list, err := s.repo.ListAll(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *RepositorySuite) TestSumByCategory() {
	s.insertOn(1, 1000, core.CategoryFood, "2024-03-01")
	s.insertOn(1, 2000, core.CategoryFood, "2024-03-02")
	s.insertOn(1, 500, core.CategoryTransport, "2024-03-02")
	s.insertOn(2, 9999, core.CategoryFood, "2024-03-02")

	totals, err := s.repo.SumByCategory(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(totals, 2)
	s.Equal(core.CategoryTotal{Category: core.CategoryFood, Total: core.Money{Cents: 3000}}, totals[0])
	s.Equal(core.CategoryTotal{Category: core.CategoryTransport, Total: core.Money{Cents: 500}}, totals[1])
}

func (s *RepositorySuite) TestSumByCategoryEmpty() {
	totals, err := s.repo.SumByCategory(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(totals)
}

func (s *RepositorySuite) TestSumForMonth() {
	s.insertOn(1, 1000, core.CategoryFood, "2024-03-01")
	s.insertOn(1, 700, core.CategoryTransport, "2024-03-02")
	s.insertOn(1, 999, core.CategoryFood, "2024-04-01")
	s.insertOn(2, 5000, core.CategoryFood, "2024-03-15")

	total, err := s.repo.SumForMonth(s.ctx, 1, 2024, 3)
	s.Require().NoError(err)
	s.Equal(int64(1700), total.Cents)

	empty, err := s.repo.SumForMonth(s.ctx, 1, 2024, 2)
	s.Require().NoError(err)
	s.Equal(int64(0), empty.Cents)
}

func (s *RepositorySuite) TestDailyTotalsForMonth() {
	s.insertOn(1, 600, core.CategoryFood, "2024-03-01")
	s.insertOn(1, 400, core.CategoryTransport, "2024-03-01")
	s.insertOn(1, 700, core.CategoryFood, "2024-03-02")
	s.insertOn(1, 123, core.CategoryFood, "2024-04-01")

	days, err := s.repo.DailyTotalsForMonth(s.ctx, 1, 2024, 3)
	s.Require().NoError(err)
	s.Require().Len(days, 2)
	s.Equal(core.DailyTotal{Date: "2024-03-01", Total: core.Money{Cents: 1000}}, days[0])
	s.Equal(core.DailyTotal{Date: "2024-03-02", Total: core.Money{Cents: 700}}, days[1])
}

func (s *RepositorySuite) TestMonthOverview() {
	s.insertOn(1, 1000, core.CategoryFood, "2024-03-01")
	s.insertOn(1, 700, core.CategoryFood, "2024-03-02")

	overview, err := s.repo.MonthOverview(s.ctx, 1, 2024, 3)
	s.Require().NoError(err)
	s.Equal(2024, overview.Year)
	s.Equal(3, overview.Month)
	s.Equal(int64(1700), overview.Total.Cents)
	s.Len(overview.ByDay, 2)
}

func (s *RepositorySuite) TestNotFoundIsNotValidation() {
	_, err := s.repo.DeleteByID(s.ctx, 1, 7)
	s.Require().Error(err)
	s.False(core.IsValidation(err))
	s.True(errors.Is(err, core.ErrNotFound))
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}
