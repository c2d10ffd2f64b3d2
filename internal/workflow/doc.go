// Package workflow drives queued images through the background remover one at
// a time.
//
// The Manager owns the processing loop. A submission while idle starts a
// single loop goroutine; submissions while it runs only enqueue, and the loop
// re-polls the store after every item until nothing is pending. Each item is
// marked processing, handed to the transformer without any lock held, and
// then recorded as a result or as a terminal error. A failing or panicking
// transform affects only its own item.
//
// Every store mutation and controller transition emits an Event. Events are
// produced under the manager mutex, so their order matches the order of
// mutations, and are delivered to observers by a dedicated dispatcher
// goroutine so a slow observer never stalls processing.
//
// Removing an item that is mid-transform does not interrupt the call; its
// outcome is discarded when it arrives and no event fires for it.
package workflow
