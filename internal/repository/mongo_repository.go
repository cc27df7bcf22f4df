package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/segyhp/loan-tracker/internal/database"
	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/pkg/utils"

	customError "github.com/segyhp/loan-tracker/pkg/errors"
)

// loanDocument is the stored shape of a loan. Amount is written as
// Decimal128; older documents may hold a plain number.
type loanDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Company     string             `bson:"company"`
	Amount      interface{}        `bson:"amount"`
	PhoneNumber string             `bson:"phoneNumber"`
	DueDate     time.Time          `bson:"dueDate"`
	Status      string             `bson:"status"`
	Receipt     *string            `bson:"receipt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type mongoLoanRepository struct {
	handle     *database.Handle[*mongo.Client]
	database   string
	collection string
}

// NewMongoLoanRepository returns the MongoDB loan store
func NewMongoLoanRepository(handle *database.Handle[*mongo.Client], databaseName, collection string) LoanRepository {
	return &mongoLoanRepository{
		handle:     handle,
		database:   databaseName,
		collection: collection,
	}
}

func (r *mongoLoanRepository) coll(ctx context.Context) (*mongo.Collection, error) {
	client, err := r.handle.Get(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(r.database).Collection(r.collection), nil
}

// EnsureIndexes creates the indexes list and range queries rely on
func (r *mongoLoanRepository) EnsureIndexes(ctx context.Context) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}

	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "dueDate", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return storeError(r.handle, "create indexes", err)
	}
	return nil
}

func (r *mongoLoanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, storeError(r.handle, "list loans", err)
	}

	var docs []loanDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeError(r.handle, "decode loans", err)
	}

	loans := make([]*domain.Loan, 0, len(docs))
	for i := range docs {
		loan, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, nil
}

func (r *mongoLoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := newLoanDocument(loan)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc.ID = primitive.NilObjectID
	doc.Status = string(domain.StatusPending)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	result, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, storeError(r.handle, "create loan", err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}

	return doc.toDomain()
}

func (r *mongoLoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, customError.ErrLoanNotFound
	}

	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	var doc loanDocument
	if err := coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customError.ErrLoanNotFound
		}
		return nil, storeError(r.handle, "get loan", err)
	}

	return doc.toDomain()
}

func (r *mongoLoanRepository) Update(ctx context.Context, id string, patch *domain.LoanPatch) (*domain.Loan, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, customError.ErrLoanNotFound
	}

	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}

	update, err := updateDocument(patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc loanDocument
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customError.ErrLoanNotFound
		}
		return nil, storeError(r.handle, "update loan", err)
	}

	return doc.toDomain()
}

func (r *mongoLoanRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return customError.ErrLoanNotFound
	}

	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}

	result, err := coll.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return storeError(r.handle, "delete loan", err)
	}
	if result.DeletedCount == 0 {
		return customError.ErrLoanNotFound
	}

	return nil
}

func (r *mongoLoanRepository) Ping(ctx context.Context) error {
	client, err := r.handle.Get(ctx)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return storeError(r.handle, "ping", err)
	}
	return nil
}

// updateDocument turns a patch into a $set/$unset update. A blank receipt
// removes the field.
func updateDocument(patch *domain.LoanPatch, now time.Time) (bson.M, error) {
	set := bson.M{"updatedAt": now}
	unset := bson.M{}

	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Company != nil {
		set["company"] = *patch.Company
	}
	if patch.Amount != nil {
		amount, err := toDecimal128(*patch.Amount)
		if err != nil {
			return nil, err
		}
		set["amount"] = amount
	}
	if patch.PhoneNumber != nil {
		set["phoneNumber"] = *patch.PhoneNumber
	}
	if patch.DueDate != nil {
		set["dueDate"] = utils.DateOf(*patch.DueDate)
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Receipt != nil {
		if *patch.Receipt == "" {
			unset["receipt"] = ""
		} else {
			set["receipt"] = *patch.Receipt
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

func newLoanDocument(loan *domain.Loan) (*loanDocument, error) {
	amount, err := toDecimal128(loan.Amount)
	if err != nil {
		return nil, err
	}

	return &loanDocument{
		Name:        loan.Name,
		Company:     loan.Company,
		Amount:      amount,
		PhoneNumber: loan.PhoneNumber,
		DueDate:     utils.DateOf(loan.DueDate),
		Status:      string(loan.Status),
		Receipt:     loan.Receipt,
		CreatedAt:   loan.CreatedAt,
		UpdatedAt:   loan.UpdatedAt,
	}, nil
}

func (d *loanDocument) toDomain() (*domain.Loan, error) {
	amount, err := amountFromBSON(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("loan %s: %w", d.ID.Hex(), err)
	}

	return &domain.Loan{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Company:     d.Company,
		Amount:      amount,
		PhoneNumber: d.PhoneNumber,
		DueDate:     d.DueDate.UTC(),
		Status:      domain.Status(d.Status),
		Receipt:     d.Receipt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	amount, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("amount %s: %w", d.String(), err)
	}
	return amount, nil
}

func amountFromBSON(v interface{}) (decimal.Decimal, error) {
	switch amount := v.(type) {
	case primitive.Decimal128:
		return decimal.NewFromString(amount.String())
	case float64:
		return decimal.NewFromFloat(amount), nil
	case int32:
		return decimal.NewFromInt32(amount), nil
	case int64:
		return decimal.NewFromInt(amount), nil
	case string:
		return decimal.NewFromString(amount)
	case nil:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}
