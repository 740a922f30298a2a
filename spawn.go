package tenkai

// Spawn creates an entity carrying one component. Storage for the component
// type is registered on first use with the default backing.
func Spawn[A any](w *World, a A) Entity {
	e := w.CreateEntity()
	RegisterStorage[A](w).Set(e, a)
	return e
}

// Spawn2 creates an entity carrying two components.
func Spawn2[A, B any](w *World, a A, b B) Entity {
	e := w.CreateEntity()
	RegisterStorage[A](w).Set(e, a)
	RegisterStorage[B](w).Set(e, b)
	return e
}

// Spawn3 creates an entity carrying three components.
func Spawn3[A, B, C any](w *World, a A, b B, c C) Entity {
	e := w.CreateEntity()
	RegisterStorage[A](w).Set(e, a)
	RegisterStorage[B](w).Set(e, b)
	RegisterStorage[C](w).Set(e, c)
	return e
}
