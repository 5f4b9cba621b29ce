package book

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_PutValidatesBeforeStoring(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	svc := NewService(mockRepo)
	ctx := context.Background()

	_, err := svc.Put(ctx, Book{Title: "", Author: Author{Name: "a"}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	valid := Book{Title: "t", Year: 1999, Author: Author{Name: "a"}}
	mockRepo.EXPECT().Put(ctx, valid).Return(int64(5), nil)
	id, err := svc.Put(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
}

func TestService_TopBooksRejectsNonPositiveLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewService(NewMockRepository(ctrl))

	for _, limit := range []int{0, -3} {
		_, err := svc.TopBooks(context.Background(), FieldTitle, limit)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	}
}

func TestService_PutContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	svc := NewService(mockRepo)
	ctx := context.Background()

	t.Run("empty payload", func(t *testing.T) {
		err := svc.PutContent(ctx, Content{ID: 1, FileName: "a.txt"})
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("name sanitized and size computed", func(t *testing.T) {
		mockRepo.EXPECT().PutContent(ctx, Content{
			ID:       1,
			FileName: "a.txt",
			MimeType: "text/plain",
			Data:     []byte("hello"),
			Size:     5,
		}).Return(nil)

		err := svc.PutContent(ctx, Content{ID: 1, FileName: `C:\docs\a.txt`, MimeType: "text/plain", Data: []byte("hello"), Size: 999})
		assert.NoError(t, err)
	})
}

func TestService_GetContentDerivesSize(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	svc := NewService(mockRepo)
	ctx := context.Background()

	mockRepo.EXPECT().GetContent(ctx, int64(2)).Return(Content{ID: 2, FileName: "f", Data: []byte("abc")}, nil)
	c, err := svc.GetContent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Size)

	mockRepo.EXPECT().GetContent(ctx, int64(3)).Return(Content{}, ContentNotFound(3))
	_, err = svc.GetContent(ctx, 3)
	assert.ErrorIs(t, err, ErrContentNotFound)
}
