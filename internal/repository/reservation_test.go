package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/jmoiron/sqlx"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

var reservationColumnNames = []string{
	"id",
	"room_type",
	"customer_type",
	"payment_method",
	"guest_name",
	"room_number",
	"amount_charged",
	"confirmation_id",
	"state",
	"created_at",
	"updated_at",
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewDB(sqlx.NewDb(conn, "postgres")), mock
}

func reservationRow(id string, state model.ReservationState) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(reservationColumnNames).
		AddRow(id, "deluxe", "vip", "creditcard", "guest", nil, 200.0, "conf", string(state), now, now)
}

func TestReservationRepository_UpdateState(t *testing.T) {
	ctx, seg := xray.BeginSegment(context.Background(), "TestReservationRepository_UpdateState")
	defer seg.Close(nil)

	updateQuery := regexp.QuoteMeta("UPDATE reservations")
	selectQuery := regexp.QuoteMeta("FROM reservations")
	errDB := errors.New("connection refused")

	tests := []struct {
		name        string
		setup       func(mock sqlmock.Sqlmock)
		wantUpdated bool
		wantErr     error
	}{
		{
			name: "ステータスが一致すれば更新する",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateQuery).
					WithArgs(model.StateCheckedIn, sqlmock.AnyArg(), "r-1", model.StateReserved).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantUpdated: true,
		},
		{
			name: "ステータスが変わっていれば更新しない",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateQuery).
					WithArgs(model.StateCheckedIn, sqlmock.AnyArg(), "r-1", model.StateReserved).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(selectQuery).
					WithArgs("r-1").
					WillReturnRows(reservationRow("r-1", model.StateCheckedIn))
			},
			wantUpdated: false,
		},
		{
			name: "存在しない予約",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateQuery).
					WithArgs(model.StateCheckedIn, sqlmock.AnyArg(), "r-1", model.StateReserved).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(selectQuery).
					WithArgs("r-1").
					WillReturnRows(sqlmock.NewRows(reservationColumnNames))
			},
			wantErr: model.ErrReservationNotFound,
		},
		{
			name: "更新エラー",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateQuery).
					WithArgs(model.StateCheckedIn, sqlmock.AnyArg(), "r-1", model.StateReserved).
					WillReturnError(errDB)
			},
			wantErr: errDB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.setup(mock)
			repo := NewReservationRepository(db)

			updated, err := repo.UpdateState(ctx, "r-1", model.StateReserved, model.StateCheckedIn)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UpdateState() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("UpdateState() error = %v", err)
			}
			if updated != tt.wantUpdated {
				t.Errorf("UpdateState() = %v, want %v", updated, tt.wantUpdated)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestReservationRepository_Save(t *testing.T) {
	ctx, seg := xray.BeginSegment(context.Background(), "TestReservationRepository_Save")
	defer seg.Close(nil)

	db, mock := newMockDB(t)
	repo := NewReservationRepository(db)
	record := newRecord()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WillReturnError(errors.New("duplicate key"))
	if err := repo.Save(ctx, record); err == nil {
		t.Error("Save() should return the insert error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestReservationRepository_FindByID(t *testing.T) {
	ctx, seg := xray.BeginSegment(context.Background(), "TestReservationRepository_FindByID")
	defer seg.Close(nil)

	db, mock := newMockDB(t)
	repo := NewReservationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations")).
		WithArgs("r-1").
		WillReturnRows(reservationRow("r-1", model.StateReserved))

	record, err := repo.FindByID(ctx, "r-1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if record.ID != "r-1" || record.RoomType != model.RoomTypeDeluxe || record.State != model.StateReserved {
		t.Errorf("FindByID() = %+v", record)
	}
	if record.RoomNumber != nil || record.AmountCharged != 200.0 {
		t.Errorf("FindByID() = %+v, want no room number and 200", record)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
