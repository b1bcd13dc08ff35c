package handler

import (
    "errors"
    "io"

    "github.com/labstack/echo/v4"
)

var errNoFile = errors.New("file is required")

// formFile opens the multipart part named "file".  The caller closes it.
func formFile(c echo.Context) (string, io.ReadCloser, error) {
    fh, err := c.FormFile("file")
    if err != nil {
        return "", nil, errNoFile
    }
    f, err := fh.Open()
    if err != nil {
        return "", nil, err
    }
    return fh.Filename, f, nil
}
