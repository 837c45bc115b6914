package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Majid760/xpensemate-sub000/src/models"
)

// Repository is the remote side of one list view.
type Repository[T models.Record] interface {
	List(ctx context.Context, page, limit int) (models.Page[T], error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, rec T) (T, error)
	Delete(ctx context.Context, id string) error
}

// RemoteRepository implements Repository over a Client.
type RemoteRepository[T models.Record] struct {
	client   *Client
	resource Resource[T]
}

// NewRepository binds resource to client.
func NewRepository[T models.Record](client *Client, resource Resource[T]) *RemoteRepository[T] {
	return &RemoteRepository[T]{client: client, resource: resource}
}

// Resource returns the bound resource description.
func (r *RemoteRepository[T]) Resource() Resource[T] {
	return r.resource
}

func (r *RemoteRepository[T]) List(ctx context.Context, page, limit int) (models.Page[T], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	body, err := r.client.Do(ctx, http.MethodGet, r.resource.Path, q, nil)
	if err != nil {
		return models.Page[T]{}, err
	}
	return r.resource.DecodeList(body, page)
}

func (r *RemoteRepository[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	body, err := r.client.Do(ctx, http.MethodPost, r.resource.CreatePath, nil, rec)
	if err != nil {
		return zero, err
	}
	return r.resource.DecodeItem(body)
}

func (r *RemoteRepository[T]) Update(ctx context.Context, id string, rec T) (T, error) {
	var zero T
	body, err := r.client.Do(ctx, http.MethodPut, r.resource.Path+"/"+url.PathEscape(id), nil, rec)
	if err != nil {
		return zero, err
	}
	return r.resource.DecodeItem(body)
}

func (r *RemoteRepository[T]) Delete(ctx context.Context, id string) error {
	_, err := r.client.Do(ctx, http.MethodDelete, r.resource.Path+"/"+url.PathEscape(id), nil, nil)
	return err
}
