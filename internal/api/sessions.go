package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openconsole/openconsole/internal/console"
	"github.com/openconsole/openconsole/pkg/types"
)

func errorResponse(c echo.Context, err error) error {
	if errors.Is(err, console.ErrInvalidHandle) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func sessionInfo(meta console.Metadata) types.SessionInfo {
	return types.SessionInfo{
		Handle:        meta.Handle,
		Caption:       meta.Caption,
		Title:         meta.Title,
		Started:       meta.Started,
		ExitCode:      meta.ExitCode,
		HasChildProcs: meta.HasChildProcs,
		SmartTerminal: meta.SmartTerminal,
	}
}

func (s *Server) createSession(c echo.Context) error {
	var req types.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if req.Command != "" && req.Program != "" {
		return badRequest(c, "command and program are mutually exclusive")
	}

	sess, err := s.registry.Create(
		console.SpawnSpec{Command: req.Command, Program: req.Program, Args: req.Args},
		console.Options{
			WorkingDir: req.WorkingDir,
			Env:        req.Env,
			Pty:        req.Pty,
			Cols:       req.Cols,
			Rows:       req.Rows,
		},
		console.Metadata{
			Caption:        req.Caption,
			Title:          req.Title,
			SmartTerminal:  req.SmartTerminal,
			MaxOutputLines: req.MaxOutputLines,
		},
	)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusCreated, sessionInfo(sess.Metadata()))
}

func (s *Server) createTerminal(c echo.Context) error {
	var req types.ReattachTerminalRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	sess, err := s.registry.CreateOrReattachTerminal(
		console.Options{
			WorkingDir: req.WorkingDir,
			Env:        req.Env,
			Cols:       req.Cols,
			Rows:       req.Rows,
		},
		console.Metadata{
			Handle:        req.Handle,
			AllowRestart:  req.AllowRestart,
			Caption:       req.Caption,
			Title:         req.Title,
			SmartTerminal: true,
		},
	)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, sessionInfo(sess.Metadata()))
}

func (s *Server) listSessions(c echo.Context) error {
	metas := s.registry.List()
	infos := make([]types.SessionInfo, 0, len(metas))
	for _, meta := range metas {
		infos = append(infos, sessionInfo(meta))
	}
	return c.JSON(http.StatusOK, infos)
}

func (s *Server) getSession(c echo.Context) error {
	sess, err := s.registry.Get(c.Param("handle"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, sessionInfo(sess.Metadata()))
}

func (s *Server) startSession(c echo.Context) error {
	if err := s.registry.Start(c.Param("handle")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) interruptSession(c echo.Context) error {
	if err := s.registry.Interrupt(c.Param("handle")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) writeStdin(c echo.Context) error {
	var req types.WriteStdinRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	text := req.Text
	// interrupts carry no payload and bypass decryption
	if s.encryptedInput && !req.Interrupt {
		decrypted, err := s.keys.Decrypt(text)
		if err != nil {
			return badRequest(c, "decrypt input: "+err.Error())
		}
		text = decrypted
	}

	err := s.registry.WriteStdin(c.Param("handle"), console.Input{
		Text:      text,
		EchoInput: req.EchoInput,
		Interrupt: req.Interrupt,
	})
	if err != nil {
		if errors.Is(err, console.ErrInvalidHandle) {
			return errorResponse(c, err)
		}
		return badRequest(c, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setSize(c echo.Context) error {
	var req types.ResizeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if req.Cols <= 0 || req.Rows <= 0 {
		return badRequest(c, "cols and rows must be positive")
	}

	if err := s.registry.Resize(c.Param("handle"), req.Cols, req.Rows); err != nil {
		if errors.Is(err, console.ErrInvalidHandle) {
			return errorResponse(c, err)
		}
		return badRequest(c, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setCaption(c echo.Context) error {
	var req types.SetTextRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if err := s.registry.SetCaption(c.Param("handle"), req.Text); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setTitle(c echo.Context) error {
	var req types.SetTextRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if err := s.registry.SetTitle(c.Param("handle"), req.Text); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getBuffer(c echo.Context) error {
	handle := c.Param("handle")
	buffer, err := s.registry.GetBuffer(handle)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, types.BufferResponse{Handle: handle, Buffer: buffer})
}

func (s *Server) eraseBuffer(c echo.Context) error {
	if err := s.registry.EraseBuffer(c.Param("handle")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) reapSession(c echo.Context) error {
	if err := s.registry.Reap(c.Param("handle")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) publicKey(c echo.Context) error {
	if s.keys == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "encrypted input disabled"})
	}
	pem, err := s.keys.PublicKeyPEM()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.String(http.StatusOK, pem)
}
