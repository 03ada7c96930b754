package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestGroupRepository_GetOrCreate(t *testing.T) {
	req := require.New(t)
	db, mock, err := sqlmock.New()
	req.NoError(err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_groups (name)")).
		WithArgs("civics-101").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "civics-101"))

	g, err := NewGroupRepository(db).GetOrCreate(context.Background(), "civics-101")
	req.NoError(err)
	req.Equal(3, g.ID)
	req.Equal("civics-101", g.Name)
	req.NoError(mock.ExpectationsWereMet())
}

func TestMessageRepository_AppendAndList(t *testing.T) {
	req := require.New(t)
	db, mock, err := sqlmock.New()
	req.NoError(err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_messages (group_id, content)")).
		WithArgs(3, "<b>hello</b>").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC, id ASC")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "content", "created_at"}).
			AddRow(11, 3, "<b>hello</b>", now).
			AddRow(12, 3, "again", now.Add(time.Millisecond)))

	repo := NewMessageRepository(db)
	msg, err := repo.Append(context.Background(), 3, "<b>hello</b>")
	req.NoError(err)
	req.Equal(11, msg.ID)
	req.Equal("<b>hello</b>", msg.Content)

	list, err := repo.ListByGroup(context.Background(), 3)
	req.NoError(err)
	req.Len(list, 2)
	req.Equal("again", list[1].Content)
	req.NoError(mock.ExpectationsWereMet())
}

func TestMessageRepository_AppendFailure(t *testing.T) {
	req := require.New(t)
	db, mock, err := sqlmock.New()
	req.NoError(err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_messages")).
		WillReturnError(errors.New("connection refused"))

	_, err = NewMessageRepository(db).Append(context.Background(), 3, "x")
	req.Error(err)
}
