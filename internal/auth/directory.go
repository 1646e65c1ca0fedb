// Package auth owns account creation, credential checks, and identity
// lookup.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/asahino/scribe/internal/credential"
	"github.com/asahino/scribe/internal/model"
)

var (
	// ErrEmailTaken is returned when registering an email that already
	// has an account. Emails are compared after normalization.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for every login failure.
	// Callers cannot tell an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountNotFound is returned when an account id resolves to
	// nothing.
	ErrAccountNotFound = errors.New("account not found")
)

// Directory creates and resolves accounts, backed by a DynamoDB table.
// With a nil client it keeps accounts in an in-memory map, which is
// what the tests use.
type Directory struct {
	client    *dynamodb.Client
	tableName string

	// In-memory fallback, keyed by account id.
	accounts map[string]model.Account
	mu       sync.RWMutex
}

// NewDirectory creates a Directory over the given table.
func NewDirectory(client *dynamodb.Client, tableName string) *Directory {
	return &Directory{
		client:    client,
		tableName: tableName,
		accounts:  make(map[string]model.Account),
	}
}

// NormalizeEmail trims surrounding whitespace and lowercases the
// address. All lookups and the uniqueness check operate on the
// normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account. The email must not collide with an
// existing account after normalization; uniqueness is enforced by the
// write itself, so concurrent registrations of the same address cannot
// both succeed.
func (d *Directory) Register(ctx context.Context, fullName, email, secret string) (*model.Account, error) {
	hash, err := credential.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	account := model.Account{
		ID:           uuid.New().String(),
		FullName:     strings.TrimSpace(fullName),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := d.insert(ctx, account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Authenticate resolves an account by email and checks the presented
// secret. An unknown email and a wrong secret return the same error.
func (d *Directory) Authenticate(ctx context.Context, email, secret string) (*model.Account, error) {
	account, err := d.findByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !credential.Verify(secret, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// GetByID resolves an account by its opaque id.
func (d *Directory) GetByID(ctx context.Context, id string) (*model.Account, error) {
	if d.client == nil {
		d.mu.RLock()
		defer d.mu.RUnlock()
		account, ok := d.accounts[id]
		if !ok {
			return nil, ErrAccountNotFound
		}
		return &account, nil
	}

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if out.Item == nil {
		return nil, ErrAccountNotFound
	}

	var account model.Account
	if err := attributevalue.UnmarshalMap(out.Item, &account); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	return &account, nil
}

// emailKey is the table key of the pointer item that claims an email
// address. Account items and pointer items share the table; the prefix
// keeps their key spaces apart.
func emailKey(email string) string {
	return "email#" + email
}

// findByEmail resolves an account by normalized email through its
// pointer item.
func (d *Directory) findByEmail(ctx context.Context, email string) (*model.Account, error) {
	if d.client == nil {
		d.mu.RLock()
		defer d.mu.RUnlock()
		for _, account := range d.accounts {
			if account.Email == email {
				a := account
				return &a, nil
			}
		}
		return nil, ErrAccountNotFound
	}

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: emailKey(email)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get email pointer: %w", err)
	}
	if out.Item == nil {
		return nil, ErrAccountNotFound
	}

	ref, ok := out.Item["account_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("email pointer for %s has no account_id", email)
	}
	return d.GetByID(ctx, ref.Value)
}

// insert stores a new account. The uniqueness check happens at the
// write: in memory the lookup and the insert share one critical
// section, and on DynamoDB the email pointer item is claimed with a
// conditional put before the account item is written. The loser of a
// concurrent registration gets ErrEmailTaken.
func (d *Directory) insert(ctx context.Context, account model.Account) error {
	if d.client == nil {
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, existing := range d.accounts {
			if existing.Email == account.Email {
				return ErrEmailTaken
			}
		}
		d.accounts[account.ID] = account
		return nil
	}

	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item: map[string]types.AttributeValue{
			"id":         &types.AttributeValueMemberS{Value: emailKey(account.Email)},
			"account_id": &types.AttributeValueMemberS{Value: account.ID},
		},
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrEmailTaken
		}
		return fmt.Errorf("claim email: %w", err)
	}

	item, err := attributevalue.MarshalMap(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}
