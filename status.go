package bserve

import "net/http"

// Ok returns an empty 200 result.
func Ok() *Result { return NewResult(http.StatusOK) }

// OkText returns a 200 result that renders s without a preset content type.
func OkText(s string) *Result { return Ok().Render(Text(s)) }

// Created returns an empty 201 result.
func Created() *Result { return NewResult(http.StatusCreated) }

// NoContent returns a 204 result.
func NoContent() *Result { return NewResult(http.StatusNoContent) }

// BadRequest returns an empty 400 result.
func BadRequest() *Result { return NewResult(http.StatusBadRequest) }

// Unauthorized returns an empty 401 result.
func Unauthorized() *Result { return NewResult(http.StatusUnauthorized) }

// Forbidden returns an empty 403 result.
func Forbidden() *Result { return NewResult(http.StatusForbidden) }

// NotFound returns an empty 404 result.
func NotFound() *Result { return NewResult(http.StatusNotFound) }

// InternalServerError returns a 500 result that renders err as error content.
func InternalServerError(err error) *Result {
	res := NewResult(http.StatusInternalServerError)
	if err != nil {
		res.Render(ErrorContent(err.Error(), err))
	}

	return res
}

// Redirect returns a 303 See Other result to url.
func Redirect(url string) *Result { return Ok().Redirect(url) }

// RedirectTemporary returns a 307 Temporary Redirect result to url.
func RedirectTemporary(url string) *Result { return Ok().RedirectTemporary(url) }
