package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/model"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

type commentRepository struct {
	*DB
}

const commentColumns = "c.id, c.text, c.user_id, c.case_id, c.created_at, c.updated_at"

func scanComment(row rowScanner) (*model.Comment, error) {
	var c model.Comment
	var createdAt, updatedAt int64
	if err := row.Scan(&c.ID, &c.Text, &c.UserID, &c.CaseID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMicro(createdAt)
	c.UpdatedAt = fromMicro(updatedAt)
	return &c, nil
}

func commentNotFound(objType types.ObjectType, objectID, commentID int64) error {
	return goerr.Wrap(ErrNotFound, "comment not found",
		goerr.V("comment_id", commentID),
		goerr.V("object_type", objType),
		goerr.V("object_id", objectID))
}

func (r *commentRepository) Create(ctx context.Context, c *model.Comment, objType types.ObjectType, objectID int64) (*model.Comment, error) {
	ts := now()
	created := *c
	created.CreatedAt = ts
	created.UpdatedAt = ts

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			r.rebind("INSERT INTO comments (text, user_id, case_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id"),
			created.Text, created.UserID, created.CaseID, toMicro(ts), toMicro(ts),
		).Scan(&created.ID); err != nil {
			return goerr.Wrap(err, "failed to insert comment")
		}

		if _, err := tx.ExecContext(ctx,
			r.rebind("INSERT INTO comment_links (comment_id, object_type, object_id) VALUES (?, ?, ?)"),
			created.ID, string(objType), objectID,
		); err != nil {
			return goerr.Wrap(err, "failed to insert comment link", goerr.V("comment_id", created.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *commentRepository) Get(ctx context.Context, objType types.ObjectType, objectID, commentID int64) (*model.Comment, error) {
	c, err := scanComment(r.queryRow(ctx,
		"SELECT "+commentColumns+` FROM comments c JOIN comment_links l ON l.comment_id = c.id
		WHERE l.object_type = ? AND l.object_id = ? AND c.id = ?`,
		string(objType), objectID, commentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commentNotFound(objType, objectID, commentID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get comment", goerr.V("comment_id", commentID))
	}
	return c, nil
}

func (r *commentRepository) List(ctx context.Context, objType types.ObjectType, objectID int64) ([]*model.Comment, error) {
	rows, err := r.query(ctx,
		"SELECT "+commentColumns+` FROM comments c JOIN comment_links l ON l.comment_id = c.id
		WHERE l.object_type = ? AND l.object_id = ? ORDER BY c.id ASC`,
		string(objType), objectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list comments",
			goerr.V("object_type", objType),
			goerr.V("object_id", objectID))
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan comment")
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate comments")
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	ts := now()
	res, err := r.exec(ctx, "UPDATE comments SET text = ?, updated_at = ? WHERE id = ?", c.Text, toMicro(ts), c.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update comment", goerr.V("comment_id", c.ID))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, goerr.Wrap(ErrNotFound, "comment not found", goerr.V("comment_id", c.ID))
	}

	updated, err := scanComment(r.queryRow(ctx, "SELECT "+commentColumns+" FROM comments c WHERE c.id = ?", c.ID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read updated comment", goerr.V("comment_id", c.ID))
	}
	return updated, nil
}

func (r *commentRepository) Delete(ctx context.Context, objType types.ObjectType, objectID, commentID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			r.rebind("DELETE FROM comment_links WHERE comment_id = ? AND object_type = ? AND object_id = ?"),
			commentID, string(objType), objectID)
		if err != nil {
			return goerr.Wrap(err, "failed to delete comment link", goerr.V("comment_id", commentID))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return commentNotFound(objType, objectID, commentID)
		}
		if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM comments WHERE id = ?"), commentID); err != nil {
			return goerr.Wrap(err, "failed to delete comment", goerr.V("comment_id", commentID))
		}
		return nil
	})
}
