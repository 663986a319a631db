package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetdocs/fleetdocs-api/api/handlers"
	"github.com/fleetdocs/fleetdocs-api/databases"
	"github.com/fleetdocs/fleetdocs-api/databases/mocks"
	"github.com/fleetdocs/fleetdocs-api/models"
)

func codeIssuerWith(db databases.DatabaseHelper) *handlers.CodeIssuer {
	return &handlers.CodeIssuer{DB: databases.NewOneTimeCodeDatabase(db)}
}

func TestCodeIssuer_VerifyAcceptsFreshCode(t *testing.T) {
	codeID := primitive.NewObjectID()
	userID := primitive.NewObjectID().Hex()

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.OneTimeCode)
		**arg = models.OneTimeCode{
			ID:        codeID,
			UserID:    userID,
			Purpose:   models.CodePurposeLogin,
			Code:      "123456",
			CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
		}
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	conn.On("DeleteOne", mock.Anything, bson.M{"_id": codeID}).Return(nil, nil)
	db.On("Collection", "onetimecodes").Return(conn)

	err := codeIssuerWith(db).Verify(context.Background(), userID, models.CodePurposeLogin, "123456")
	assert.NoError(t, err)

	// a code is single use, the match must be deleted
	conn.AssertCalled(t, "DeleteOne", mock.Anything, bson.M{"_id": codeID})
}

func TestCodeIssuer_VerifyRejectsExpiredCode(t *testing.T) {
	codeID := primitive.NewObjectID()
	userID := primitive.NewObjectID().Hex()

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.OneTimeCode)
		**arg = models.OneTimeCode{
			ID:        codeID,
			UserID:    userID,
			Purpose:   models.CodePurposeLogin,
			Code:      "123456",
			CreatedAt: primitive.NewDateTimeFromTime(time.Now().Add(-15 * time.Minute)),
		}
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	conn.On("DeleteOne", mock.Anything, mock.Anything).Return(nil, nil)
	db.On("Collection", "onetimecodes").Return(conn)

	err := codeIssuerWith(db).Verify(context.Background(), userID, models.CodePurposeLogin, "123456")
	assert.EqualError(t, err, "code expired")

	// even an expired attempt burns the code
	conn.AssertCalled(t, "DeleteOne", mock.Anything, bson.M{"_id": codeID})
}

func TestCodeIssuer_VerifyRejectsUnknownCode(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResult := &mocks.SingleResultHelper{}
	singleResult.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	db.On("Collection", "onetimecodes").Return(conn)

	err := codeIssuerWith(db).Verify(context.Background(), primitive.NewObjectID().Hex(), models.CodePurposeLogin, "000000")
	assert.EqualError(t, err, "invalid code")
	conn.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}
