package web

import (
	"net/http"
	"strings"

	"github.com/roach88/todos/internal/todo"
)

func (s *Server) getLists(req *request) error {
	lists, err := req.store.AllLists(req.ctx())
	if err != nil {
		return err
	}
	return req.render(http.StatusOK, pageLists, pageData{Lists: todo.SortLists(lists)})
}

func (s *Server) newList(req *request) error {
	return req.render(http.StatusOK, pageNewList, pageData{})
}

func (s *Server) createList(req *request) error {
	title := strings.TrimSpace(req.r.FormValue("list_title"))

	lists, err := req.store.AllLists(req.ctx())
	if err != nil {
		return err
	}
	if verr := todo.ValidateListTitle(title, lists); verr != nil {
		req.flash(flashError, todo.UserMessage(verr))
		return req.render(http.StatusUnprocessableEntity, pageNewList, pageData{Title: title})
	}

	if err := req.store.CreateList(req.ctx(), title); err != nil {
		return err
	}
	req.flash(flashSuccess, "The list has been added.")
	return req.redirect("/lists")
}

func (s *Server) showList(req *request) error {
	l, err := req.requireList()
	if err != nil {
		return err
	}
	l.Todos = todo.SortTodos(l.Todos)
	return req.render(http.StatusOK, pageList, pageData{List: l})
}

func (s *Server) editList(req *request) error {
	l, err := req.requireList()
	if err != nil {
		return err
	}
	return req.render(http.StatusOK, pageEditList, pageData{List: l, Title: l.Title})
}

// updateList validates against every list, the list being renamed included,
// so resubmitting the current title is reported as a duplicate.
func (s *Server) updateList(req *request) error {
	l, err := req.requireList()
	if err != nil {
		return err
	}
	title := strings.TrimSpace(req.r.FormValue("title"))

	lists, err := req.store.AllLists(req.ctx())
	if err != nil {
		return err
	}
	if verr := todo.ValidateListTitle(title, lists); verr != nil {
		req.flash(flashError, todo.UserMessage(verr))
		return req.render(http.StatusUnprocessableEntity, pageEditList, pageData{List: l, Title: title})
	}

	if err := req.store.UpdateListTitle(req.ctx(), l.ID, title); err != nil {
		return err
	}
	req.flash(flashSuccess, "The list has been updated.")
	return req.redirect("/lists/" + l.ID)
}

func (s *Server) deleteList(req *request) error {
	l, err := req.requireList()
	if err != nil {
		return err
	}
	if err := req.store.DeleteList(req.ctx(), l.ID); err != nil {
		return err
	}
	req.flash(flashSuccess, "The list has been deleted.")
	return req.redirect("/lists")
}

func (s *Server) createTodo(req *request) error {
	l, err := req.requireList()
	if err != nil {
		return err
	}
	title := strings.TrimSpace(req.r.FormValue("todo"))

	if verr := todo.ValidateTodoTitle(title); verr != nil {
		req.flash(flashError, todo.UserMessage(verr))
		l.Todos = todo.SortTodos(l.Todos)
		return req.render(http.StatusUnprocessableEntity, pageList, pageData{List: l})
	}

	if err := req.store.CreateTodo(req.ctx(), l.ID, title); err != nil {
		return err
	}
	req.flash(flashSuccess, "The todo was added.")
	return req.redirect("/lists/" + l.ID)
}

func (s *Server) completeAll(req *request) error {
	l, err := req.requireList()
	if err != nil {
		return err
	}
	if err := req.store.MarkAllCompleted(req.ctx(), l.ID); err != nil {
		return err
	}
	req.flash(flashSuccess, "All todos have been completed.")
	return req.redirect("/lists/" + l.ID)
}

func (s *Server) toggleTodo(req *request) error {
	l, t, err := req.requireTodo()
	if err != nil {
		return err
	}
	completed := strings.EqualFold(req.r.FormValue("completed"), "true")

	if err := req.store.UpdateTodoStatus(req.ctx(), l.ID, t.ID, completed); err != nil {
		return err
	}
	req.flash(flashSuccess, "The todo has been updated.")
	return req.redirect("/lists/" + l.ID)
}

func (s *Server) deleteTodo(req *request) error {
	l, t, err := req.requireTodo()
	if err != nil {
		return err
	}
	if err := req.store.DeleteTodo(req.ctx(), l.ID, t.ID); err != nil {
		return err
	}
	req.flash(flashSuccess, "The todo has been deleted.")
	return req.redirect("/lists/" + l.ID)
}

// requireList resolves {list_id}. The store reports unknown ids as nil; the
// route layer turns that into a 404.
func (req *request) requireList() (*todo.List, error) {
	l, err := req.store.FindList(req.ctx(), req.param("list_id"))
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, &notFoundError{what: "List"}
	}
	return l, nil
}

func (req *request) requireTodo() (*todo.List, *todo.Todo, error) {
	l, err := req.requireList()
	if err != nil {
		return nil, nil, err
	}
	t := todo.FindTodo(l, req.param("todo_id"))
	if t == nil {
		return nil, nil, &notFoundError{what: "Todo"}
	}
	return l, t, nil
}
